package service

import (
	"context"
	"fmt"
	"strings"

	"catalogo-bot/internal/models"
)

// PromptQuery carries one prompt through the detector cascade.
type PromptQuery struct {
	// Raw is the trimmed prompt as the user typed it.
	Raw string
	// Normalized is the lowercased, accent-stripped form used for matching.
	Normalized string
	Keywords   *KeywordSnapshot
	Catalog    Catalog
}

// Detector recognizes one intent. Attempt returns the final message and
// true when the prompt matches, or ("", false, nil) to pass the prompt on
// to the next detector.
type Detector interface {
	Name() string
	Attempt(ctx context.Context, q *PromptQuery) (string, bool, error)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// afterPrefix strips a matched leading keyword plus the following space,
// drops question marks and trims the remainder.
func afterPrefix(normalized, prefix string) string {
	rest := strings.TrimSpace(normalized[len(prefix)+1:])
	return strings.TrimSpace(strings.ReplaceAll(rest, "?", ""))
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// generalCatalogDetector answers "what is in the catalog" style prompts by
// listing the root sections. Prompts that also carry a section-listing
// prefix are left for the section detector.
type generalCatalogDetector struct{}

func (generalCatalogDetector) Name() string { return "catalogo_geral" }

func (generalCatalogDetector) Attempt(ctx context.Context, q *PromptQuery) (string, bool, error) {
	catalogKws := q.Keywords.Get(models.IntentGeneralCatalog, models.KeywordContains)
	exclusions := q.Keywords.Get(models.IntentItemsBySection, models.KeywordPrefix)
	if !containsAny(q.Normalized, catalogKws) || containsAny(q.Normalized, exclusions) {
		return "", false, nil
	}

	roots, err := q.Catalog.RootSections(ctx)
	if err != nil {
		return "", false, err
	}
	if len(roots) == 0 {
		return "Catálogo de seções ainda não definido.", true, nil
	}

	entries := make([]string, 0, len(roots))
	for _, sec := range roots {
		children, err := q.Catalog.DirectChildren(ctx, sec.ID)
		if err != nil {
			return "", false, err
		}
		if len(children) > 0 {
			entries = append(entries, fmt.Sprintf("%s (ex: %s)", sec.Name, children[0].Name))
		} else {
			entries = append(entries, sec.Name)
		}
	}
	msg := fmt.Sprintf("Nosso catálogo principal inclui: %s. Pergunte 'o que tem em [nome da seção]?' para detalhes.",
		strings.Join(entries, ", "))
	return msg, true, nil
}

// typeBrandDetector recognizes "<prefix> <type> <separator> <brand>" prompts
// and lists items matching both the type and the brand.
type typeBrandDetector struct{}

func (typeBrandDetector) Name() string { return "itens_tipo_marca" }

func (typeBrandDetector) Attempt(ctx context.Context, q *PromptQuery) (string, bool, error) {
	prefixes := q.Keywords.Get(models.IntentItemsTypeBrand, models.KeywordPrefix)
	separators := q.Keywords.Get(models.IntentItemsTypeBrand, models.KeywordSeparator)

	rest := q.Normalized
	for _, prefix := range prefixes {
		if strings.HasPrefix(rest, prefix+" ") {
			rest = strings.TrimSpace(rest[len(prefix)+1:])
			break
		}
	}

	var itemType, brand string
	for _, sep := range separators {
		idx := strings.Index(rest, sep)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(rest[:idx])
		right := strings.TrimSpace(rest[idx+len(sep):])
		if left == "" || right == "" {
			continue
		}
		itemType = left
		brand = strings.ReplaceAll(right, "?", "")
		// A redundant "marca " lead on the brand segment is dropped.
		if strings.HasPrefix(brand, "marca ") {
			brand = strings.TrimSpace(brand[len("marca "):])
		}
		break
	}
	if itemType == "" || brand == "" {
		return "", false, nil
	}

	typePattern := "%" + firstWord(itemType) + "%"
	brandPattern := "%" + brand + "%"
	items, err := q.Catalog.ItemsByTypeAndBrand(ctx, typePattern, brandPattern, listingLimit)
	if err != nil {
		return "", false, err
	}
	if len(items) == 0 {
		return fmt.Sprintf("Não encontrei '%s' da marca '%s'.", itemType, capitalize(brand)), true, nil
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (Marca: %s) Preço: %s Validade: %s Desc: %s...",
			item.Name, capitalize(item.Brand), formatPrice(item.Price), formatExpiry(item.Expiry),
			truncateRunes(item.Description, 50)))
	}
	msg := fmt.Sprintf("Para '%s' da marca '%s':\n%s", itemType, capitalize(brand), strings.Join(lines, "\n"))
	return msg, true, nil
}

// sectionDetector resolves a section (or subsection) by name and lists its
// direct children and items. An unresolved candidate declines so the rest
// of the cascade can try the prompt.
type sectionDetector struct{}

func (sectionDetector) Name() string { return "itens_categoria" }

func (sectionDetector) Attempt(ctx context.Context, q *PromptQuery) (string, bool, error) {
	prefixes := q.Keywords.Get(models.IntentItemsBySection, models.KeywordPrefix)

	var candidate string
	for _, prefix := range prefixes {
		if !strings.HasPrefix(q.Normalized, prefix+" ") {
			continue
		}
		rest := afterPrefix(q.Normalized, prefix)
		if prefix == "mostre" || prefix == "liste" {
			// The bare "show"/"list" prefixes may carry a filler phrase
			// before the section name.
			switch {
			case strings.HasPrefix(rest, "itens da "):
				candidate = strings.TrimSpace(rest[len("itens da "):])
			case strings.HasPrefix(rest, "a secao "):
				candidate = strings.TrimSpace(rest[len("a secao "):])
			default:
				candidate = rest
			}
		} else {
			candidate = rest
		}
		if candidate == "" {
			continue
		}
		for _, article := range []string{"a ", "o ", "as ", "os "} {
			if strings.HasPrefix(candidate, article) {
				candidate = strings.TrimSpace(candidate[len(article):])
			}
		}
		if candidate != "" {
			break
		}
	}
	// A short prompt may be a bare section name.
	if candidate == "" && wordCount(q.Normalized) >= 1 && wordCount(q.Normalized) <= 3 {
		candidate = q.Normalized
	}
	if candidate == "" {
		return "", false, nil
	}

	sec, err := q.Catalog.SectionByName(ctx, candidate)
	if err != nil {
		return "", false, err
	}
	if sec == nil {
		return "", false, nil
	}

	children, err := q.Catalog.DirectChildren(ctx, sec.ID)
	if err != nil {
		return "", false, err
	}
	items, err := q.Catalog.ItemsBySection(ctx, sec.ID, listingLimit)
	if err != nil {
		return "", false, err
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (Marca: %s) Preço: %s Validade: %s",
			item.Name, orNA(item.Brand), formatPrice(item.Price), formatExpiry(item.Expiry)))
	}

	var msg string
	switch {
	case len(children) > 0:
		names := make([]string, 0, len(children))
		for _, child := range children {
			names = append(names, capitalize(child.Name))
		}
		msg = fmt.Sprintf("A seção '%s' inclui: %s. ", capitalize(sec.Name), strings.Join(names, ", "))
		if len(items) == 0 {
			msg += "Explorar qual?"
		} else {
			msg += "Itens diretos:\n" + strings.Join(lines, "\n")
		}
	case len(items) > 0:
		msg = fmt.Sprintf("Em '%s':\n%s", capitalize(sec.Name), strings.Join(lines, "\n"))
	default:
		msg = fmt.Sprintf("Seção '%s' sem subcategorias ou itens.", capitalize(sec.Name))
	}
	return msg, true, nil
}

// brandDetector lists items of a brand extracted from a prefix keyword.
type brandDetector struct{}

func (brandDetector) Name() string { return "itens_marca" }

func (brandDetector) Attempt(ctx context.Context, q *PromptQuery) (string, bool, error) {
	prefixes := q.Keywords.Get(models.IntentItemsByBrand, models.KeywordPrefix)

	var brand string
	for _, prefix := range prefixes {
		if strings.HasPrefix(q.Normalized, prefix+" ") {
			brand = afterPrefix(q.Normalized, prefix)
			if brand != "" {
				break
			}
		}
	}
	if brand == "" {
		return "", false, nil
	}

	items, err := q.Catalog.ItemsByBrand(ctx, "%"+brand+"%", listingLimit)
	if err != nil {
		return "", false, err
	}
	if len(items) == 0 {
		return fmt.Sprintf("Não encontrei itens da marca '%s'.", capitalize(brand)), true, nil
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (Cat: %s) Preço: %s Validade: %s",
			item.Name, orNA(item.Section), formatPrice(item.Price), formatExpiry(item.Expiry)))
	}
	msg := fmt.Sprintf("Da marca '%s':\n%s", capitalize(brand), strings.Join(lines, "\n"))
	return msg, true, nil
}

// genericTypeDetector searches items by a free product type. When the
// candidate names an existing section it declines, so section browsing
// keeps precedence and the answer is not duplicated.
type genericTypeDetector struct{}

func (genericTypeDetector) Name() string { return "itens_tipo_generico" }

func (genericTypeDetector) Attempt(ctx context.Context, q *PromptQuery) (string, bool, error) {
	prefixes := q.Keywords.Get(models.IntentItemsByType, models.KeywordPrefix)

	var itemType string
	for _, prefix := range prefixes {
		if !strings.HasPrefix(q.Normalized, prefix+" ") {
			continue
		}
		rest := afterPrefix(q.Normalized, prefix)
		if prefix == "tem" {
			// Bare "tem" needs more than one word to mean a type search.
			if wordCount(q.Normalized) > 1 && rest != "" {
				itemType = rest
				break
			}
		} else if rest != "" {
			itemType = rest
			break
		}
	}
	if itemType == "" && wordCount(q.Normalized) >= 1 && wordCount(q.Normalized) <= 3 {
		itemType = q.Normalized
	}
	if itemType == "" {
		return "", false, nil
	}

	sec, err := q.Catalog.SectionByName(ctx, itemType)
	if err != nil {
		return "", false, err
	}
	if sec != nil {
		return "", false, nil
	}

	namePattern := "%" + firstWord(itemType) + "%"
	singularPattern := "%" + singularize(itemType) + "%"
	items, err := q.Catalog.ItemsByPatterns(ctx, namePattern, singularPattern, listingLimit)
	if err != nil {
		return "", false, err
	}
	if len(items) == 0 {
		return fmt.Sprintf("Não encontrei itens do tipo '%s'.", itemType), true, nil
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (Marca: %s, Cat: %s) Preço: %s Validade: %s",
			item.Name, orNA(item.Brand), orNA(item.Section), formatPrice(item.Price), formatExpiry(item.Expiry)))
	}
	msg := fmt.Sprintf("Sobre '%s', encontrei:\n%s", itemType, strings.Join(lines, "\n"))
	return msg, true, nil
}

// brandsByTypeDetector lists the distinct brands sold for a category. A
// candidate that resolves to a section covers the whole descendant closure;
// otherwise the item names are searched directly.
type brandsByTypeDetector struct{}

func (brandsByTypeDetector) Name() string { return "marcas_por_tipo" }

func (brandsByTypeDetector) Attempt(ctx context.Context, q *PromptQuery) (string, bool, error) {
	prefixes := q.Keywords.Get(models.IntentBrandsByType, models.KeywordPrefix)

	var candidate string
	for _, prefix := range prefixes {
		if strings.HasPrefix(q.Normalized, prefix+" ") {
			candidate = afterPrefix(q.Normalized, prefix)
			if candidate != "" {
				break
			}
		}
	}
	if candidate == "" {
		return "", false, nil
	}

	sec, err := q.Catalog.SectionByName(ctx, candidate)
	if err != nil {
		return "", false, err
	}

	var brands []string
	display := candidate
	if sec != nil {
		ids, err := q.Catalog.DescendantIDs(ctx, sec.ID)
		if err != nil {
			return "", false, err
		}
		brands, err = q.Catalog.BrandNamesBySections(ctx, ids)
		if err != nil {
			return "", false, err
		}
		display = capitalize(sec.Name)
	} else {
		namePattern := "%" + firstWord(candidate) + "%"
		singularPattern := "%" + singularize(candidate) + "%"
		brands, err = q.Catalog.BrandNamesByItemName(ctx, namePattern, singularPattern)
		if err != nil {
			return "", false, err
		}
	}

	if len(brands) == 0 {
		return fmt.Sprintf("Não encontrei marcas para '%s'.", display), true, nil
	}
	return fmt.Sprintf("Marcas para '%s': %s.", display, strings.Join(brands, ", ")), true, nil
}
