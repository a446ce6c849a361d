package models

// Section is a node of the catalog hierarchy. ParentID is nil for root
// sections; the parent graph forms a forest.
type Section struct {
	ID        int64     `db:"id"`
	Name      string    `db:"nome"`
	ParentID  *int64    `db:"secao_pai_id"`
	Embedding []float32 `db:"embedding"`
}

// SectionMatch is a section returned by nearest-neighbor search.
type SectionMatch struct {
	ID       int64
	Name     string
	Distance float64
}
