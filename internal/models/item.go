package models

import "time"

// Item is a catalog product. Items are written only by the bulk importer
// and are read-only at query time.
type Item struct {
	ID          int64      `db:"id"`
	SectionID   int64      `db:"secao_id"`
	Name        string     `db:"nome"`
	Description string     `db:"descricao"`
	Price       float64    `db:"preco"`
	Expiry      *time.Time `db:"validade"`
	BrandID     *int64     `db:"marca_id"`
	Embedding   []float32  `db:"embedding"`
}

// ItemListing is a denormalized item row as the listing intents render it.
// Brand and Section are empty when the underlying reference is NULL or the
// query did not join the table.
type ItemListing struct {
	Name        string
	Description string
	Brand       string
	Section     string
	Price       float64
	Expiry      *time.Time
}

// ItemMatch is an item returned by nearest-neighbor search.
type ItemMatch struct {
	ItemListing
	Distance float64
}
