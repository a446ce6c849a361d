package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"unicode/utf8"

	"catalogo-bot/internal/models"

	"go.uber.org/zap"
)

// KeywordSource yields the active intent keywords, ordered by intent code,
// keyword type, priority descending, then value length descending.
type KeywordSource interface {
	ActiveKeywords(ctx context.Context) ([]models.IntentKeyword, error)
}

// KeywordSnapshot is an immutable view of the keyword table, keyed by intent
// code and keyword type. Values are normalized; prefix and separator groups
// are ordered longest-first so greedy matching is deterministic.
type KeywordSnapshot struct {
	keywords map[string]map[models.KeywordType][]string
}

// Get returns the ordered keyword list for an intent and type. Missing
// entries yield an empty slice, never an error.
func (s *KeywordSnapshot) Get(intentCode string, kind models.KeywordType) []string {
	byType, ok := s.keywords[intentCode]
	if !ok {
		return nil
	}
	return byType[kind]
}

// KeywordCache holds the current keyword snapshot. Load replaces the whole
// snapshot with a single atomic pointer store, so concurrent readers see
// either the old or the new table, never a mix.
type KeywordCache struct {
	source   KeywordSource
	logger   *zap.Logger
	snapshot atomic.Pointer[KeywordSnapshot]
}

func NewKeywordCache(source KeywordSource, logger *zap.Logger) *KeywordCache {
	c := &KeywordCache{
		source: source,
		logger: logger,
	}
	c.snapshot.Store(&KeywordSnapshot{keywords: map[string]map[models.KeywordType][]string{}})
	return c
}

// Load rebuilds the snapshot from the keyword source and swaps it in.
func (c *KeywordCache) Load(ctx context.Context) error {
	rows, err := c.source.ActiveKeywords(ctx)
	if err != nil {
		return fmt.Errorf("load intent keywords: %w", err)
	}

	keywords := make(map[string]map[models.KeywordType][]string)
	for _, kw := range rows {
		byType, ok := keywords[kw.IntentCode]
		if !ok {
			byType = make(map[models.KeywordType][]string)
			keywords[kw.IntentCode] = byType
		}
		byType[kw.Type] = append(byType[kw.Type], Normalize(kw.Value))
	}

	// Normalization can change lengths, so prefix and separator groups are
	// re-sorted longest-first. The stable sort keeps the priority order for
	// equal lengths.
	for _, byType := range keywords {
		for _, kind := range []models.KeywordType{models.KeywordPrefix, models.KeywordSeparator} {
			list := byType[kind]
			sort.SliceStable(list, func(i, j int) bool {
				return utf8.RuneCountInString(list[i]) > utf8.RuneCountInString(list[j])
			})
		}
	}

	c.snapshot.Store(&KeywordSnapshot{keywords: keywords})
	c.logger.Info("Intent keyword cache loaded",
		zap.Int("intents", len(keywords)),
		zap.Int("keywords", len(rows)),
	)
	return nil
}

// Snapshot returns the current keyword table.
func (c *KeywordCache) Snapshot() *KeywordSnapshot {
	return c.snapshot.Load()
}
