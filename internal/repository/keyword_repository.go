package repository

import (
	"context"

	"catalogo-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// KeywordRepository reads the intent keyword table. It is hit only on
// startup and on explicit reloads, never in the request path.
type KeywordRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewKeywordRepository(db *pgxpool.Pool, logger *zap.Logger) *KeywordRepository {
	return &KeywordRepository{
		db:     db,
		logger: logger,
	}
}

// ActiveKeywords returns the active keywords ordered by intent code, type,
// priority descending, then value length descending, so the cache's greedy
// longest-match order is already established.
func (r *KeywordRepository) ActiveKeywords(ctx context.Context) ([]models.IntentKeyword, error) {
	query := squirrel.Select("codigo_intencao", "tipo_palavra_chave", "valor_palavra_chave", "prioridade").
		From("palavras_chave_intencao").
		Where(squirrel.Eq{"ativo": true}).
		OrderBy("codigo_intencao", "tipo_palavra_chave", "prioridade DESC", "length(valor_palavra_chave) DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("active keywords", err)
	}
	defer rows.Close()

	var keywords []models.IntentKeyword
	for rows.Next() {
		var kw models.IntentKeyword
		if err := rows.Scan(&kw.IntentCode, &kw.Type, &kw.Value, &kw.Priority); err != nil {
			return nil, storeErr("active keywords", err)
		}
		kw.Active = true
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("active keywords", err)
	}
	return keywords, nil
}
