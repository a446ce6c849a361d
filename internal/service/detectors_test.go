package service

import (
	"context"
	"testing"
	"time"

	"catalogo-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCatalog is an in-memory Catalog. Queried patterns are recorded so
// tests can assert how a prompt was parsed.
type fakeCatalog struct {
	sectionsByName map[string]*models.Section
	roots          []models.Section
	children       map[int64][]models.Section
	descendants    map[int64][]int64
	sectionItems   map[int64][]models.ItemListing
	typeBrandItems []models.ItemListing
	brandItems     []models.ItemListing
	patternItems   []models.ItemListing
	sectionBrands  []string
	itemBrands     []string
	nearestItem    *models.ItemMatch
	nearestSection *models.SectionMatch
	err            error

	calls           []string
	typePattern     string
	brandPattern    string
	namePattern     string
	singularPattern string
	queriedSections []int64
	limit           int
}

func (f *fakeCatalog) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeCatalog) SectionByName(ctx context.Context, normalizedName string) (*models.Section, error) {
	f.record("SectionByName")
	return f.sectionsByName[normalizedName], f.err
}

func (f *fakeCatalog) RootSections(ctx context.Context) ([]models.Section, error) {
	f.record("RootSections")
	return f.roots, f.err
}

func (f *fakeCatalog) DirectChildren(ctx context.Context, sectionID int64) ([]models.Section, error) {
	f.record("DirectChildren")
	return f.children[sectionID], f.err
}

func (f *fakeCatalog) DescendantIDs(ctx context.Context, sectionID int64) ([]int64, error) {
	f.record("DescendantIDs")
	return f.descendants[sectionID], f.err
}

func (f *fakeCatalog) ItemsByTypeAndBrand(ctx context.Context, typePattern, brandPattern string, limit int) ([]models.ItemListing, error) {
	f.record("ItemsByTypeAndBrand")
	f.limit = limit
	f.typePattern, f.brandPattern = typePattern, brandPattern
	return f.typeBrandItems, f.err
}

func (f *fakeCatalog) ItemsBySection(ctx context.Context, sectionID int64, limit int) ([]models.ItemListing, error) {
	f.record("ItemsBySection")
	f.limit = limit
	return f.sectionItems[sectionID], f.err
}

func (f *fakeCatalog) ItemsByBrand(ctx context.Context, brandPattern string, limit int) ([]models.ItemListing, error) {
	f.record("ItemsByBrand")
	f.limit = limit
	f.brandPattern = brandPattern
	return f.brandItems, f.err
}

func (f *fakeCatalog) ItemsByPatterns(ctx context.Context, namePattern, singularPattern string, limit int) ([]models.ItemListing, error) {
	f.record("ItemsByPatterns")
	f.limit = limit
	f.namePattern, f.singularPattern = namePattern, singularPattern
	return f.patternItems, f.err
}

func (f *fakeCatalog) BrandNamesBySections(ctx context.Context, sectionIDs []int64) ([]string, error) {
	f.record("BrandNamesBySections")
	f.queriedSections = sectionIDs
	return f.sectionBrands, f.err
}

func (f *fakeCatalog) BrandNamesByItemName(ctx context.Context, namePattern, singularPattern string) ([]string, error) {
	f.record("BrandNamesByItemName")
	f.namePattern, f.singularPattern = namePattern, singularPattern
	return f.itemBrands, f.err
}

func (f *fakeCatalog) NearestItem(ctx context.Context, embedding []float32) (*models.ItemMatch, error) {
	f.record("NearestItem")
	return f.nearestItem, f.err
}

func (f *fakeCatalog) NearestSection(ctx context.Context, embedding []float32) (*models.SectionMatch, error) {
	f.record("NearestSection")
	return f.nearestSection, f.err
}

// testKeywords mirrors the keyword set the importer seeds.
func testKeywords() []models.IntentKeyword {
	type row struct {
		intent   string
		kind     models.KeywordType
		value    string
		priority int
	}
	rows := []row{
		{models.IntentGeneralCatalog, models.KeywordContains, "cardápio", 0},
		{models.IntentGeneralCatalog, models.KeywordContains, "menu", 0},
		{models.IntentGeneralCatalog, models.KeywordContains, "catálogo", 0},
		{models.IntentGeneralCatalog, models.KeywordContains, "catalogo", 0},
		{models.IntentGeneralCatalog, models.KeywordContains, "seções", 0},
		{models.IntentGeneralCatalog, models.KeywordContains, "categorias", 0},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "me diga todos os", 10},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "quais são os", 10},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "liste os", 10},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "mostre os", 10},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "todos os", 10},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "quero ver os", 10},
		{models.IntentItemsTypeBrand, models.KeywordPrefix, "quero os", 10},
		{models.IntentItemsTypeBrand, models.KeywordSeparator, " da marca ", 10},
		{models.IntentItemsTypeBrand, models.KeywordSeparator, " do marca ", 10},
		{models.IntentItemsTypeBrand, models.KeywordSeparator, " da ", 5},
		{models.IntentItemsTypeBrand, models.KeywordSeparator, " do ", 5},
		{models.IntentItemsBySection, models.KeywordPrefix, "o que tem na seção", 10},
		{models.IntentItemsBySection, models.KeywordPrefix, "oque tem na seção", 10},
		{models.IntentItemsBySection, models.KeywordPrefix, "o que tem na", 9},
		{models.IntentItemsBySection, models.KeywordPrefix, "oque tem na", 9},
		{models.IntentItemsBySection, models.KeywordPrefix, "o que tem em", 8},
		{models.IntentItemsBySection, models.KeywordPrefix, "oque tem em", 8},
		{models.IntentItemsBySection, models.KeywordPrefix, "itens da", 5},
		{models.IntentItemsBySection, models.KeywordPrefix, "itens de", 5},
		{models.IntentItemsBySection, models.KeywordPrefix, "produtos da", 4},
		{models.IntentItemsBySection, models.KeywordPrefix, "produtos de", 4},
		{models.IntentItemsBySection, models.KeywordPrefix, "mostre", 0},
		{models.IntentItemsBySection, models.KeywordPrefix, "liste", 0},
		{models.IntentItemsByBrand, models.KeywordPrefix, "o que tem da marca", 10},
		{models.IntentItemsByBrand, models.KeywordPrefix, "o que tem da", 9},
		{models.IntentItemsByBrand, models.KeywordPrefix, "da marca", 6},
		{models.IntentItemsByBrand, models.KeywordPrefix, "da", 5},
		{models.IntentItemsByType, models.KeywordPrefix, "o que tem de", 10},
		{models.IntentItemsByType, models.KeywordPrefix, "tem de", 9},
		{models.IntentItemsByType, models.KeywordPrefix, "tem", 5},
		{models.IntentBrandsByType, models.KeywordPrefix, "marcas de", 10},
		{models.IntentBrandsByType, models.KeywordPrefix, "marca de", 9},
		{models.IntentBrandsByType, models.KeywordPrefix, "fabricantes de", 8},
		{models.IntentBrandsByType, models.KeywordPrefix, "fabricante de", 7},
	}

	keywords := make([]models.IntentKeyword, 0, len(rows))
	for _, r := range rows {
		keywords = append(keywords, models.IntentKeyword{
			IntentCode: r.intent,
			Type:       r.kind,
			Value:      r.value,
			Priority:   r.priority,
			Active:     true,
		})
	}
	return keywords
}

func testSnapshot(t *testing.T) *KeywordSnapshot {
	t.Helper()
	cache := NewKeywordCache(&fakeKeywordSource{rows: testKeywords()}, zap.NewNop())
	require.NoError(t, cache.Load(context.Background()))
	return cache.Snapshot()
}

func newQuery(t *testing.T, prompt string, catalog Catalog) *PromptQuery {
	t.Helper()
	return &PromptQuery{
		Raw:        prompt,
		Normalized: Normalize(prompt),
		Keywords:   testSnapshot(t),
		Catalog:    catalog,
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestGeneralCatalogDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("lists root sections with an example child", func(t *testing.T) {
		catalog := &fakeCatalog{
			roots: []models.Section{
				{ID: 1, Name: "Bebidas"},
				{ID: 2, Name: "Padaria"},
			},
			children: map[int64][]models.Section{
				1: {{ID: 3, Name: "Refrigerantes"}},
			},
		}
		msg, matched, err := generalCatalogDetector{}.Attempt(ctx, newQuery(t, "qual é o catálogo?", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Nosso catálogo principal inclui: Bebidas (ex: Refrigerantes), Padaria. Pergunte 'o que tem em [nome da seção]?' para detalhes.", msg)
	})

	t.Run("empty catalog", func(t *testing.T) {
		catalog := &fakeCatalog{}
		msg, matched, err := generalCatalogDetector{}.Attempt(ctx, newQuery(t, "me mostra o menu", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Catálogo de seções ainda não definido.", msg)
	})

	t.Run("declines without a catalog keyword", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := generalCatalogDetector{}.Attempt(ctx, newQuery(t, "o que tem de suco", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
		assert.Empty(t, catalog.calls)
	})

	t.Run("section listing prefix wins over catalog keyword", func(t *testing.T) {
		// "mostre" opens a section listing, so the general answer must not
		// swallow the prompt even though it mentions the catalog.
		catalog := &fakeCatalog{}
		_, matched, err := generalCatalogDetector{}.Attempt(ctx, newQuery(t, "mostre o catálogo de bebidas", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
		assert.Empty(t, catalog.calls)
	})
}

func TestTypeBrandDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("parses prefix, type and brand", func(t *testing.T) {
		catalog := &fakeCatalog{
			typeBrandItems: []models.ItemListing{
				{Name: "Suco Del Valle Uva", Brand: "del valle", Description: "Néctar de uva", Price: 7.5},
			},
		}
		msg, matched, err := typeBrandDetector{}.Attempt(ctx, newQuery(t, "quero os sucos da marca Del Valle?", catalog))
		require.NoError(t, err)
		require.True(t, matched)

		assert.Equal(t, "%sucos%", catalog.typePattern)
		assert.Equal(t, "%del valle%", catalog.brandPattern)
		assert.Equal(t, 10, catalog.limit)
		assert.Equal(t, "Para 'sucos' da marca 'Del valle':\n- Suco Del Valle Uva (Marca: Del valle) Preço: R$7.50 Validade: N/A Desc: Néctar de uva...", msg)
	})

	t.Run("longest separator wins", func(t *testing.T) {
		// " da marca " must split before the shorter " da " so the brand
		// segment does not keep the word "marca".
		catalog := &fakeCatalog{}
		msg, matched, err := typeBrandDetector{}.Attempt(ctx, newQuery(t, "todos os iogurtes da marca Nestlé", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "%nestle%", catalog.brandPattern)
		assert.Equal(t, "Não encontrei 'iogurtes' da marca 'Nestle'.", msg)
	})

	t.Run("type keeps only its first word in the pattern", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := typeBrandDetector{}.Attempt(ctx, newQuery(t, "liste os sucos de uva da Del Valle", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "%sucos%", catalog.typePattern)
		assert.Equal(t, "%del valle%", catalog.brandPattern)
	})

	t.Run("declines without a separator", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := typeBrandDetector{}.Attempt(ctx, newQuery(t, "quero os sucos", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
		assert.Empty(t, catalog.calls)
	})
}

func TestSectionDetector(t *testing.T) {
	ctx := context.Background()
	bebidas := &models.Section{ID: 1, Name: "Bebidas"}
	padaria := &models.Section{ID: 2, Name: "Padaria"}

	t.Run("section with subsections", func(t *testing.T) {
		catalog := &fakeCatalog{
			sectionsByName: map[string]*models.Section{"bebidas": bebidas},
			children: map[int64][]models.Section{
				1: {{ID: 3, Name: "Refrigerantes"}, {ID: 4, Name: "Sucos"}},
			},
		}
		msg, matched, err := sectionDetector{}.Attempt(ctx, newQuery(t, "O que tem na seção Bebidas?", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "A seção 'Bebidas' inclui: Refrigerantes, Sucos. Explorar qual?", msg)
	})

	t.Run("leaf section lists items", func(t *testing.T) {
		catalog := &fakeCatalog{
			sectionsByName: map[string]*models.Section{"padaria": padaria},
			sectionItems: map[int64][]models.ItemListing{
				2: {{Name: "Pão Francês", Price: 0.8, Expiry: date(2026, time.March, 9)}},
			},
		}
		msg, matched, err := sectionDetector{}.Attempt(ctx, newQuery(t, "mostre itens da padaria", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Em 'Padaria':\n- Pão Francês (Marca: N/A) Preço: R$0.80 Validade: 09/03/2026", msg)
	})

	t.Run("leading article stripped", func(t *testing.T) {
		catalog := &fakeCatalog{
			sectionsByName: map[string]*models.Section{"padaria": padaria},
		}
		msg, matched, err := sectionDetector{}.Attempt(ctx, newQuery(t, "o que tem na a padaria", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Seção 'Padaria' sem subcategorias ou itens.", msg)
	})

	t.Run("bare section name", func(t *testing.T) {
		catalog := &fakeCatalog{
			sectionsByName: map[string]*models.Section{"bebidas": bebidas},
			children: map[int64][]models.Section{
				1: {{ID: 3, Name: "Refrigerantes"}},
			},
		}
		msg, matched, err := sectionDetector{}.Attempt(ctx, newQuery(t, "Bebidas", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "A seção 'Bebidas' inclui: Refrigerantes. Explorar qual?", msg)
	})

	t.Run("unknown section declines", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := sectionDetector{}.Attempt(ctx, newQuery(t, "o que tem na seção ferramentas", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("long prompt without prefix declines", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := sectionDetector{}.Attempt(ctx, newQuery(t, "qual é o produto mais barato de todos", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
		assert.Empty(t, catalog.calls)
	})
}

func TestBrandDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("lists brand items", func(t *testing.T) {
		catalog := &fakeCatalog{
			brandItems: []models.ItemListing{
				{Name: "Leite Ninho", Section: "laticínios", Price: 25.9},
			},
		}
		msg, matched, err := brandDetector{}.Attempt(ctx, newQuery(t, "o que tem da marca Nestlé", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "%nestle%", catalog.brandPattern)
		assert.Equal(t, "Da marca 'Nestle':\n- Leite Ninho (Cat: Laticínios) Preço: R$25.90 Validade: N/A", msg)
	})

	t.Run("unknown brand answers not found", func(t *testing.T) {
		catalog := &fakeCatalog{}
		msg, matched, err := brandDetector{}.Attempt(ctx, newQuery(t, "da marca acme", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Não encontrei itens da marca 'Acme'.", msg)
	})

	t.Run("declines without a brand prefix", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := brandDetector{}.Attempt(ctx, newQuery(t, "quais marcas vendem suco", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
	})
}

func TestGenericTypeDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("searches plural and singular patterns", func(t *testing.T) {
		catalog := &fakeCatalog{
			patternItems: []models.ItemListing{
				{Name: "Chocolate Amargo", Brand: "lindt", Section: "doces", Price: 18},
			},
		}
		msg, matched, err := genericTypeDetector{}.Attempt(ctx, newQuery(t, "o que tem de chocolates", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "%chocolates%", catalog.namePattern)
		assert.Equal(t, "%chocolate%", catalog.singularPattern)
		assert.Equal(t, "Sobre 'chocolates', encontrei:\n- Chocolate Amargo (Marca: Lindt, Cat: Doces) Preço: R$18.00 Validade: N/A", msg)
	})

	t.Run("section names are left to section browsing", func(t *testing.T) {
		catalog := &fakeCatalog{
			sectionsByName: map[string]*models.Section{"bebidas": {ID: 1, Name: "Bebidas"}},
		}
		_, matched, err := genericTypeDetector{}.Attempt(ctx, newQuery(t, "o que tem de bebidas", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
		assert.NotContains(t, catalog.calls, "ItemsByPatterns")
	})

	t.Run("bare tem needs more words", func(t *testing.T) {
		catalog := &fakeCatalog{patternItems: nil}
		msg, matched, err := genericTypeDetector{}.Attempt(ctx, newQuery(t, "tem chocolate", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Não encontrei itens do tipo 'chocolate'.", msg)
	})
}

func TestBrandsByTypeDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("section closure", func(t *testing.T) {
		catalog := &fakeCatalog{
			sectionsByName: map[string]*models.Section{"refrigerantes": {ID: 3, Name: "refrigerantes"}},
			descendants:    map[int64][]int64{3: {3, 7}},
			sectionBrands:  []string{"Coca-Cola", "Fanta"},
		}
		msg, matched, err := brandsByTypeDetector{}.Attempt(ctx, newQuery(t, "marcas de refrigerantes", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, []int64{3, 7}, catalog.queriedSections)
		assert.Equal(t, "Marcas para 'Refrigerantes': Coca-Cola, Fanta.", msg)
	})

	t.Run("falls back to item name search", func(t *testing.T) {
		catalog := &fakeCatalog{itemBrands: []string{"Del Valle"}}
		msg, matched, err := brandsByTypeDetector{}.Attempt(ctx, newQuery(t, "fabricantes de suco", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "%suco%", catalog.namePattern)
		assert.Equal(t, "%suco%", catalog.singularPattern)
		assert.Equal(t, "Marcas para 'suco': Del Valle.", msg)
	})

	t.Run("no brands", func(t *testing.T) {
		catalog := &fakeCatalog{}
		msg, matched, err := brandsByTypeDetector{}.Attempt(ctx, newQuery(t, "marca de vassoura", catalog))
		require.NoError(t, err)
		require.True(t, matched)
		assert.Equal(t, "Não encontrei marcas para 'vassoura'.", msg)
	})

	t.Run("declines without prefix", func(t *testing.T) {
		catalog := &fakeCatalog{}
		_, matched, err := brandsByTypeDetector{}.Attempt(ctx, newQuery(t, "liste as marcas", catalog))
		require.NoError(t, err)
		assert.False(t, matched)
	})
}
