package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Distance thresholds for the semantic fallback. A close item beats a close
// section only when the section is not meaningfully closer: the margin keeps
// a specific product from losing to a broad category that is almost as far.
const (
	itemDistanceLimit    = 7.5
	sectionDistanceLimit = 8.5
	itemPreferenceMargin = 0.2
)

// semanticFallback answers prompts no rule-based detector recognized, using
// nearest-neighbor search over the item and section embeddings.
type semanticFallback struct {
	logger *zap.Logger
}

func (f *semanticFallback) Answer(ctx context.Context, catalog Catalog, embedding []float32) (string, error) {
	item, err := catalog.NearestItem(ctx, embedding)
	if err != nil {
		return "", err
	}
	section, err := catalog.NearestSection(ctx, embedding)
	if err != nil {
		return "", err
	}

	itemDist := math.Inf(1)
	if item != nil {
		itemDist = item.Distance
	}
	sectionDist := math.Inf(1)
	if section != nil {
		sectionDist = section.Distance
	}
	f.logger.Debug("Semantic fallback distances",
		zap.Float64("item", itemDist),
		zap.Float64("section", sectionDist),
	)

	if itemDist < itemDistanceLimit && itemDist < sectionDist-itemPreferenceMargin {
		description := item.Description
		if description == "" {
			description = "N/A"
		}
		return fmt.Sprintf("Encontrei '%s'. Desc: %s. Marca: %s. Preço: %s. Validade: %s.",
			item.Name, description, orNA(item.Brand), formatPrice(item.Price), formatExpiry(item.Expiry)), nil
	}

	if sectionDist < sectionDistanceLimit {
		children, err := catalog.DirectChildren(ctx, section.ID)
		if err != nil {
			return "", err
		}
		if len(children) > 0 {
			names := make([]string, 0, len(children))
			for _, child := range children {
				names = append(names, capitalize(child.Name))
			}
			return fmt.Sprintf("Relacionado à seção '%s', que inclui: %s. Explorar?",
				capitalize(section.Name), strings.Join(names, ", ")), nil
		}
		return fmt.Sprintf("Relacionado à seção '%s'. Ver itens?", capitalize(section.Name)), nil
	}

	return "Desculpe, não entendi bem. Poderia reformular?", nil
}
