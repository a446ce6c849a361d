package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"catalogo-bot/internal/service"
	"catalogo-bot/pkg/config"
	"catalogo-bot/pkg/logger"
	"catalogo-bot/pkg/postgres"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	csvPath := flag.String("csv", "catalogo_completo.csv", "path to the full catalog CSV file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	embeddingService, err := service.NewEmbeddingService(&cfg.Embedding, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding service", zap.Error(err))
	}

	imp := &importer{
		db:       db,
		embedder: embeddingService,
		logger:   appLogger,
	}

	appLogger.Info("Starting catalog import", zap.String("csv", *csvPath))
	if err := imp.Run(ctx, *csvPath); err != nil {
		appLogger.Fatal("Catalog import failed", zap.Error(err))
	}
	appLogger.Info("Catalog import completed")
}

type importer struct {
	db       *pgxpool.Pool
	embedder *service.EmbeddingService
	logger   *zap.Logger

	sectionIDs map[string]int64
	brandIDs   map[string]int64
}

func (imp *importer) Run(ctx context.Context, csvPath string) error {
	imp.sectionIDs = make(map[string]int64)
	imp.brandIDs = make(map[string]int64)

	if err := imp.createSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := imp.clearData(ctx); err != nil {
		return fmt.Errorf("clear existing data: %w", err)
	}
	if err := imp.seedKeywords(ctx); err != nil {
		return fmt.Errorf("seed intent keywords: %w", err)
	}
	if err := imp.importCatalog(ctx, csvPath); err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}
	return nil
}

func (imp *importer) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS unaccent`,
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS secoes_catalogo (
			id SERIAL PRIMARY KEY,
			nome TEXT NOT NULL UNIQUE,
			embedding VECTOR(768),
			secao_pai_id INTEGER REFERENCES secoes_catalogo(id) DEFAULT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS marcas (
			id SERIAL PRIMARY KEY,
			nome TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS itens_secao (
			id SERIAL PRIMARY KEY,
			secao_id INTEGER REFERENCES secoes_catalogo(id),
			nome TEXT NOT NULL,
			descricao TEXT,
			preco NUMERIC(10, 2),
			validade DATE,
			marca_id INTEGER REFERENCES marcas(id),
			embedding VECTOR(768)
		)`,
		`CREATE TABLE IF NOT EXISTS palavras_chave_intencao (
			id SERIAL PRIMARY KEY,
			codigo_intencao TEXT NOT NULL,
			tipo_palavra_chave TEXT NOT NULL,
			valor_palavra_chave TEXT NOT NULL,
			prioridade INTEGER DEFAULT 0,
			ativo BOOLEAN NOT NULL DEFAULT TRUE,
			descricao TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_palavras_chave_intencao_codigo_tipo
			ON palavras_chave_intencao (codigo_intencao, tipo_palavra_chave, prioridade DESC)`,
	}
	for _, stmt := range statements {
		if _, err := imp.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	imp.logger.Info("Schema verified")
	return nil
}

func (imp *importer) clearData(ctx context.Context) error {
	statements := []string{
		`DELETE FROM itens_secao`,
		`DELETE FROM palavras_chave_intencao`,
		`DELETE FROM secoes_catalogo WHERE secao_pai_id IS NOT NULL`,
		`DELETE FROM secoes_catalogo WHERE secao_pai_id IS NULL`,
		`DELETE FROM marcas`,
	}
	for _, stmt := range statements {
		if _, err := imp.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	imp.logger.Info("Existing data cleared")
	return nil
}

type seedKeyword struct {
	intent   string
	kind     string
	value    string
	priority int
}

// The built-in keyword set the cascade is tuned for. The table stays
// editable afterwards; the cache reload endpoint picks changes up.
var seedKeywords = []seedKeyword{
	{"CATALOGO_GERAL", "contem", "cardápio", 0},
	{"CATALOGO_GERAL", "contem", "menu", 0},
	{"CATALOGO_GERAL", "contem", "catálogo", 0},
	{"CATALOGO_GERAL", "contem", "catalogo", 0},
	{"CATALOGO_GERAL", "contem", "lista de opções", 0},
	{"CATALOGO_GERAL", "contem", "seções", 0},
	{"CATALOGO_GERAL", "contem", "categorias", 0},
	{"CATALOGO_GERAL", "contem", "secoes", 0},
	{"CATALOGO_GERAL", "contem", "opcoes", 0},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "me diga todos os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "quais são os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "liste os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "mostre os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "todos os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "quero ver os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "prefixo", "quero os", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "separador", " da marca ", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "separador", " do marca ", 10},
	{"LISTAR_ITENS_TIPO_MARCA", "separador", " da ", 5},
	{"LISTAR_ITENS_TIPO_MARCA", "separador", " do ", 5},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "o que tem na seção", 10},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "oque tem na seção", 10},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "o que tem na", 9},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "oque tem na", 9},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "o que tem em", 8},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "oque tem em", 8},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "itens da", 5},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "itens de", 5},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "produtos da", 4},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "produtos de", 4},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "mostre", 0},
	{"LISTAR_ITENS_CATEGORIA", "prefixo", "liste", 0},
	{"LISTAR_ITENS_MARCA", "prefixo", "o que tem da marca", 10},
	{"LISTAR_ITENS_MARCA", "prefixo", "o que tem da", 9},
	{"LISTAR_ITENS_MARCA", "prefixo", "da marca", 6},
	{"LISTAR_ITENS_MARCA", "prefixo", "da", 5},
	{"LISTAR_ITENS_TIPO_GENERICO", "prefixo", "o que tem de", 10},
	{"LISTAR_ITENS_TIPO_GENERICO", "prefixo", "tem de", 9},
	{"LISTAR_ITENS_TIPO_GENERICO", "prefixo", "tem", 5},
	{"LISTAR_MARCAS_POR_TIPO", "prefixo", "marcas de", 10},
	{"LISTAR_MARCAS_POR_TIPO", "prefixo", "marca de", 9},
	{"LISTAR_MARCAS_POR_TIPO", "prefixo", "fabricantes de", 8},
	{"LISTAR_MARCAS_POR_TIPO", "prefixo", "fabricante de", 7},
}

func (imp *importer) seedKeywords(ctx context.Context) error {
	for _, kw := range seedKeywords {
		_, err := imp.db.Exec(ctx,
			`INSERT INTO palavras_chave_intencao
				(codigo_intencao, tipo_palavra_chave, valor_palavra_chave, prioridade, ativo)
			 VALUES ($1, $2, $3, $4, TRUE)`,
			kw.intent, kw.kind, kw.value, kw.priority,
		)
		if err != nil {
			return err
		}
	}
	imp.logger.Info("Intent keywords seeded", zap.Int("count", len(seedKeywords)))
	return nil
}

func (imp *importer) importCatalog(ctx context.Context, csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	// Some exports lead with a UTF-8 BOM.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			imp.logger.Warn("Skipping malformed csv row", zap.Int("line", line), zap.Error(err))
			continue
		}

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		itemName := field("nome_item")
		sectionName := field("nome_secao_item")
		parentName := field("nome_secao_pai_item")
		brandName := field("nome_marca_item")

		if itemName == "" || sectionName == "" {
			imp.logger.Warn("Item or section name missing, skipping row", zap.Int("line", line))
			continue
		}

		if parentName != "" {
			if _, err := imp.sectionID(ctx, parentName, ""); err != nil {
				imp.logger.Warn("Failed to resolve parent section, skipping row",
					zap.Int("line", line), zap.String("section", parentName), zap.Error(err))
				continue
			}
		}
		sectionID, err := imp.sectionID(ctx, sectionName, parentName)
		if err != nil {
			imp.logger.Warn("Failed to resolve section, skipping row",
				zap.Int("line", line), zap.String("section", sectionName), zap.Error(err))
			continue
		}

		var brandID *int64
		if brandName != "" {
			id, err := imp.brandID(ctx, brandName)
			if err != nil {
				// The item is still imported, just without a brand.
				imp.logger.Warn("Failed to resolve brand",
					zap.Int("line", line), zap.String("brand", brandName), zap.Error(err))
			} else {
				brandID = &id
			}
		}

		description := strings.TrimSpace(field("descricao_base_item") + " " + field("outros_detalhes_item"))
		var price *float64
		if s := field("preco_item"); s != "" {
			p, err := strconv.ParseFloat(s, 64)
			if err != nil {
				imp.logger.Warn("Invalid price, skipping row", zap.Int("line", line), zap.String("price", s))
				continue
			}
			price = &p
		}
		expiry := parseExpiry(field("validade_str_item"), time.Now())

		embeddingText := fmt.Sprintf("%s %s Marca: %s Categoria: %s", itemName, description, brandName, sectionName)
		embedding, err := imp.embed(ctx, embeddingText)
		if err != nil {
			imp.logger.Warn("Failed to embed item, skipping row",
				zap.Int("line", line), zap.String("item", itemName), zap.Error(err))
			continue
		}

		_, err = imp.db.Exec(ctx,
			`INSERT INTO itens_secao (secao_id, nome, descricao, preco, validade, marca_id, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::real[]::vector)`,
			sectionID, itemName, description, price, expiry, brandID, pgtype.FlatArray[float32](embedding),
		)
		if err != nil {
			imp.logger.Warn("Failed to insert item", zap.Int("line", line), zap.String("item", itemName), zap.Error(err))
			continue
		}
		imported++
	}

	imp.logger.Info("Items imported", zap.Int("count", imported))
	return nil
}

// sectionID resolves or creates a section, creating the parent first when
// it is named and does not exist yet.
func (imp *importer) sectionID(ctx context.Context, name, parentName string) (int64, error) {
	key := service.Normalize(name)
	if id, ok := imp.sectionIDs[key]; ok {
		return id, nil
	}

	var parentID *int64
	if parentName != "" {
		id, err := imp.sectionID(ctx, parentName, "")
		if err != nil {
			return 0, err
		}
		parentID = &id
	}

	embedding, err := imp.embed(ctx, name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = imp.db.QueryRow(ctx,
		`INSERT INTO secoes_catalogo (nome, embedding, secao_pai_id)
		 VALUES ($1, $2::real[]::vector, $3)
		 ON CONFLICT (nome) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			secao_pai_id = COALESCE(EXCLUDED.secao_pai_id, secoes_catalogo.secao_pai_id)
		 RETURNING id`,
		name, pgtype.FlatArray[float32](embedding), parentID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	imp.sectionIDs[key] = id
	return id, nil
}

func (imp *importer) brandID(ctx context.Context, name string) (int64, error) {
	key := service.Normalize(name)
	if id, ok := imp.brandIDs[key]; ok {
		return id, nil
	}

	var id int64
	err := imp.db.QueryRow(ctx,
		`INSERT INTO marcas (nome) VALUES ($1)
		 ON CONFLICT (nome) DO UPDATE SET nome = EXCLUDED.nome
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	imp.brandIDs[key] = id
	return id, nil
}

func (imp *importer) embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, service.EmbeddingDimensions), nil
	}
	return imp.embedder.Embed(ctx, text)
}

// parseExpiry understands "dd/mm/yyyy", "indeterminada" (no expiry) and
// relative forms like "30 dias", "6 meses", "2 anos".
func parseExpiry(s string, today time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "indeterminada") {
		return nil
	}

	if t, err := time.Parse("02/01/2006", s); err == nil {
		return &t
	}

	parts := strings.Fields(strings.ToLower(s))
	if len(parts) != 2 {
		return nil
	}
	value, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}

	unit := parts[1]
	var t time.Time
	switch {
	case strings.Contains(unit, "dia"):
		t = today.AddDate(0, 0, value)
	case strings.Contains(unit, "mes"), strings.Contains(unit, "mês"):
		t = today.AddDate(0, value, 0)
	case strings.Contains(unit, "ano"):
		t = today.AddDate(value, 0, 0)
	default:
		return nil
	}
	return &t
}
