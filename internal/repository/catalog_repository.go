package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogo-bot/internal/models"
	"catalogo-bot/internal/service"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrStore wraps every failure reaching the relational store, so callers
// can map it to a 503 without inspecting driver errors.
var ErrStore = errors.New("catalog store unavailable")

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}

// CatalogRepository hands out request-scoped catalog sessions over a pgx
// pool. Queries on stored names are accent- and case-insensitive via the
// Postgres unaccent extension; parameters arrive already normalized.
type CatalogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCatalogRepository(db *pgxpool.Pool, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// Session acquires one exclusive pooled connection for a request. The
// caller must Release it on every exit path.
func (r *CatalogRepository) Session(ctx context.Context) (service.CatalogSession, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, storeErr("acquire connection", err)
	}
	return &catalogSession{conn: conn, logger: r.logger}, nil
}

type catalogSession struct {
	conn   *pgxpool.Conn
	logger *zap.Logger
}

func (s *catalogSession) Release() {
	s.conn.Release()
}

func (s *catalogSession) SectionByName(ctx context.Context, normalizedName string) (*models.Section, error) {
	query := squirrel.Select("id", "nome", "secao_pai_id").
		From("secoes_catalogo").
		Where(squirrel.Expr("unaccent(lower(nome)) = ?", strings.TrimSpace(normalizedName))).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var sec models.Section
	err = s.conn.QueryRow(ctx, sql, args...).Scan(&sec.ID, &sec.Name, &sec.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("section by name", err)
	}
	return &sec, nil
}

func (s *catalogSession) RootSections(ctx context.Context) ([]models.Section, error) {
	query := squirrel.Select("id", "nome").
		From("secoes_catalogo").
		Where("secao_pai_id IS NULL").
		OrderBy("nome").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanSections(ctx, "root sections", sql, args)
}

func (s *catalogSession) DirectChildren(ctx context.Context, sectionID int64) ([]models.Section, error) {
	query := squirrel.Select("id", "nome").
		From("secoes_catalogo").
		Where(squirrel.Eq{"secao_pai_id": sectionID}).
		OrderBy("nome").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanSections(ctx, "direct children", sql, args)
}

func (s *catalogSession) scanSections(ctx context.Context, op, sql string, args []interface{}) ([]models.Section, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var sec models.Section
		if err := rows.Scan(&sec.ID, &sec.Name); err != nil {
			return nil, storeErr(op, err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return sections, nil
}

// DescendantIDs walks the parent relation downward. The hierarchy is a
// forest, so the recursion is bounded by the total section count.
func (s *catalogSession) DescendantIDs(ctx context.Context, sectionID int64) ([]int64, error) {
	sql := `
		WITH RECURSIVE sub_secoes AS (
			SELECT id FROM secoes_catalogo WHERE id = $1
			UNION ALL
			SELECT cs.id FROM secoes_catalogo cs
			INNER JOIN sub_secoes ss ON cs.secao_pai_id = ss.id
		)
		SELECT id FROM sub_secoes`

	rows, err := s.conn.Query(ctx, sql, sectionID)
	if err != nil {
		return nil, storeErr("descendant ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("descendant ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("descendant ids", err)
	}
	return ids, nil
}

func (s *catalogSession) ItemsByTypeAndBrand(ctx context.Context, typePattern, brandPattern string, limit int) ([]models.ItemListing, error) {
	query := squirrel.Select("i.nome", "i.descricao", "m.nome", "i.preco", "i.validade").
		From("itens_secao i").
		Join("marcas m ON i.marca_id = m.id").
		Where(squirrel.And{
			squirrel.Or{
				squirrel.Expr("unaccent(lower(i.nome)) LIKE unaccent(?)", typePattern),
				squirrel.Expr("unaccent(lower(i.descricao)) LIKE unaccent(?)", typePattern),
			},
			squirrel.Expr("unaccent(lower(m.nome)) LIKE unaccent(?)", brandPattern),
		}).
		OrderBy("i.nome").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("items by type and brand", err)
	}
	defer rows.Close()

	var items []models.ItemListing
	for rows.Next() {
		var item models.ItemListing
		var description, brand *string
		if err := rows.Scan(&item.Name, &description, &brand, &item.Price, &item.Expiry); err != nil {
			return nil, storeErr("items by type and brand", err)
		}
		item.Description = deref(description)
		item.Brand = deref(brand)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("items by type and brand", err)
	}
	return items, nil
}

func (s *catalogSession) ItemsBySection(ctx context.Context, sectionID int64, limit int) ([]models.ItemListing, error) {
	query := squirrel.Select("i.nome", "m.nome", "i.preco", "i.validade", "i.descricao").
		From("itens_secao i").
		LeftJoin("marcas m ON i.marca_id = m.id").
		Where(squirrel.Eq{"i.secao_id": sectionID}).
		OrderBy("i.nome").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("items by section", err)
	}
	defer rows.Close()

	var items []models.ItemListing
	for rows.Next() {
		var item models.ItemListing
		var brand, description *string
		if err := rows.Scan(&item.Name, &brand, &item.Price, &item.Expiry, &description); err != nil {
			return nil, storeErr("items by section", err)
		}
		item.Brand = deref(brand)
		item.Description = deref(description)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("items by section", err)
	}
	return items, nil
}

func (s *catalogSession) ItemsByBrand(ctx context.Context, brandPattern string, limit int) ([]models.ItemListing, error) {
	query := squirrel.Select("i.nome", "sc.nome", "i.preco", "i.validade").
		From("itens_secao i").
		Join("marcas m ON i.marca_id = m.id").
		LeftJoin("secoes_catalogo sc ON i.secao_id = sc.id").
		Where(squirrel.Expr("unaccent(lower(m.nome)) LIKE unaccent(?)", brandPattern)).
		OrderBy("sc.nome", "i.nome").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("items by brand", err)
	}
	defer rows.Close()

	var items []models.ItemListing
	for rows.Next() {
		var item models.ItemListing
		var section *string
		if err := rows.Scan(&item.Name, &section, &item.Price, &item.Expiry); err != nil {
			return nil, storeErr("items by brand", err)
		}
		item.Section = deref(section)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("items by brand", err)
	}
	return items, nil
}

func (s *catalogSession) ItemsByPatterns(ctx context.Context, namePattern, singularPattern string, limit int) ([]models.ItemListing, error) {
	query := squirrel.Select("i.nome", "m.nome", "sc.nome", "i.preco", "i.validade").
		From("itens_secao i").
		LeftJoin("marcas m ON i.marca_id = m.id").
		LeftJoin("secoes_catalogo sc ON i.secao_id = sc.id").
		Where(squirrel.Or{
			squirrel.Expr("unaccent(lower(i.nome)) LIKE unaccent(?)", namePattern),
			squirrel.Expr("unaccent(lower(i.nome)) LIKE unaccent(?)", singularPattern),
			squirrel.Expr("unaccent(lower(i.descricao)) LIKE unaccent(?)", namePattern),
			squirrel.Expr("unaccent(lower(i.descricao)) LIKE unaccent(?)", singularPattern),
		}).
		OrderBy("RANDOM()").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("items by patterns", err)
	}
	defer rows.Close()

	var items []models.ItemListing
	for rows.Next() {
		var item models.ItemListing
		var brand, section *string
		if err := rows.Scan(&item.Name, &brand, &section, &item.Price, &item.Expiry); err != nil {
			return nil, storeErr("items by patterns", err)
		}
		item.Brand = deref(brand)
		item.Section = deref(section)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("items by patterns", err)
	}
	return items, nil
}

func (s *catalogSession) BrandNamesBySections(ctx context.Context, sectionIDs []int64) ([]string, error) {
	sql := `
		SELECT DISTINCT m.nome FROM marcas m
		JOIN itens_secao i ON m.id = i.marca_id
		WHERE i.secao_id = ANY($1)
		ORDER BY m.nome`

	return s.scanBrandNames(ctx, "brands by sections", sql, []interface{}{sectionIDs})
}

func (s *catalogSession) BrandNamesByItemName(ctx context.Context, namePattern, singularPattern string) ([]string, error) {
	query := squirrel.Select("DISTINCT m.nome").
		From("marcas m").
		Join("itens_secao i ON m.id = i.marca_id").
		Where(squirrel.Or{
			squirrel.Expr("unaccent(lower(i.nome)) LIKE unaccent(?)", namePattern),
			squirrel.Expr("unaccent(lower(i.nome)) LIKE unaccent(?)", singularPattern),
		}).
		OrderBy("m.nome").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanBrandNames(ctx, "brands by item name", sql, args)
}

func (s *catalogSession) scanBrandNames(ctx context.Context, op, sql string, args []interface{}) ([]string, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr(op, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return names, nil
}

func (s *catalogSession) NearestItem(ctx context.Context, embedding []float32) (*models.ItemMatch, error) {
	sql := `
		SELECT i.nome, i.descricao, i.embedding <-> $1::real[]::vector AS dist,
		       i.preco, i.validade, m.nome
		FROM itens_secao i
		LEFT JOIN marcas m ON i.marca_id = m.id
		ORDER BY dist
		LIMIT 1`

	var match models.ItemMatch
	var description, brand *string
	err := s.conn.QueryRow(ctx, sql, vectorParam(embedding)).Scan(
		&match.Name, &description, &match.Distance, &match.Price, &match.Expiry, &brand,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("nearest item", err)
	}
	match.Description = deref(description)
	match.Brand = deref(brand)
	return &match, nil
}

func (s *catalogSession) NearestSection(ctx context.Context, embedding []float32) (*models.SectionMatch, error) {
	sql := `
		SELECT nome, id, embedding <-> $1::real[]::vector AS dist
		FROM secoes_catalogo
		ORDER BY dist
		LIMIT 1`

	var match models.SectionMatch
	err := s.conn.QueryRow(ctx, sql, vectorParam(embedding)).Scan(&match.Name, &match.ID, &match.Distance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("nearest section", err)
	}
	return &match, nil
}

// vectorParam ships an embedding as a float4 array; the queries cast it to
// a pgvector value server-side.
func vectorParam(embedding []float32) pgtype.FlatArray[float32] {
	return pgtype.FlatArray[float32](embedding)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
