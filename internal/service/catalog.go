package service

import (
	"context"

	"catalogo-bot/internal/models"
)

// listingLimit caps every item listing response.
const listingLimit = 10

// Catalog is the read-only query surface the detectors and the semantic
// fallback run against. LIKE patterns are matched accent- and
// case-insensitively by the store.
type Catalog interface {
	// SectionByName resolves a section by its normalized name. Returns
	// (nil, nil) when no section matches.
	SectionByName(ctx context.Context, normalizedName string) (*models.Section, error)
	// RootSections lists sections without a parent, ordered by name.
	RootSections(ctx context.Context) ([]models.Section, error)
	// DirectChildren lists the immediate subsections, ordered by name.
	DirectChildren(ctx context.Context, sectionID int64) ([]models.Section, error)
	// DescendantIDs returns the transitive closure of a section's
	// subsections, including the section itself.
	DescendantIDs(ctx context.Context, sectionID int64) ([]int64, error)

	// ItemsByTypeAndBrand matches item name or description against
	// typePattern and the brand name against brandPattern, ordered by item
	// name.
	ItemsByTypeAndBrand(ctx context.Context, typePattern, brandPattern string, limit int) ([]models.ItemListing, error)
	// ItemsBySection lists the items directly owned by a section, ordered
	// by item name.
	ItemsBySection(ctx context.Context, sectionID int64, limit int) ([]models.ItemListing, error)
	// ItemsByBrand matches the brand name against brandPattern, ordered by
	// section name then item name.
	ItemsByBrand(ctx context.Context, brandPattern string, limit int) ([]models.ItemListing, error)
	// ItemsByPatterns matches item name or description against either
	// pattern, in randomized order.
	ItemsByPatterns(ctx context.Context, namePattern, singularPattern string, limit int) ([]models.ItemListing, error)

	// BrandNamesBySections returns the distinct brand names used by items
	// in the given sections, ordered by name.
	BrandNamesBySections(ctx context.Context, sectionIDs []int64) ([]string, error)
	// BrandNamesByItemName returns the distinct brand names of items whose
	// name matches either pattern, ordered by name.
	BrandNamesByItemName(ctx context.Context, namePattern, singularPattern string) ([]string, error)

	// NearestItem returns the item closest to the embedding by vector
	// distance, or (nil, nil) when there are no items.
	NearestItem(ctx context.Context, embedding []float32) (*models.ItemMatch, error)
	// NearestSection returns the section closest to the embedding by vector
	// distance, or (nil, nil) when there are no sections.
	NearestSection(ctx context.Context, embedding []float32) (*models.SectionMatch, error)
}

// CatalogSession is a request-scoped catalog handle backed by a single
// database connection. Release must be called on every exit path.
type CatalogSession interface {
	Catalog
	Release()
}

// CatalogStore hands out request-scoped sessions.
type CatalogStore interface {
	Session(ctx context.Context) (CatalogSession, error)
}
