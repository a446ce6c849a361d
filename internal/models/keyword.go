package models

// KeywordType is the role a keyword plays when matching a prompt.
type KeywordType string

const (
	// KeywordContains matches as a substring anywhere in the prompt.
	KeywordContains KeywordType = "contem"
	// KeywordPrefix must lead the prompt (followed by a space).
	KeywordPrefix KeywordType = "prefixo"
	// KeywordSeparator splits the prompt into two parts.
	KeywordSeparator KeywordType = "separador"
)

// Intent codes recognized by the detector cascade.
const (
	IntentGeneralCatalog  = "CATALOGO_GERAL"
	IntentItemsTypeBrand  = "LISTAR_ITENS_TIPO_MARCA"
	IntentItemsBySection  = "LISTAR_ITENS_CATEGORIA"
	IntentItemsByBrand    = "LISTAR_ITENS_MARCA"
	IntentItemsByType     = "LISTAR_ITENS_TIPO_GENERICO"
	IntentBrandsByType    = "LISTAR_MARCAS_POR_TIPO"
)

// IntentKeyword is one row of the keyword table. Values are stored with
// their original casing; normalization happens when the cache is built.
type IntentKeyword struct {
	ID          int64       `db:"id"`
	IntentCode  string      `db:"codigo_intencao"`
	Type        KeywordType `db:"tipo_palavra_chave"`
	Value       string      `db:"valor_palavra_chave"`
	Priority    int         `db:"prioridade"`
	Active      bool        `db:"ativo"`
	Description string      `db:"descricao"`
}
