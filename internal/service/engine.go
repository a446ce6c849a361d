package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrEmptyPrompt marks a missing or blank prompt.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrEmbedding marks a failed or malformed embedding computation.
	ErrEmbedding = errors.New("embedding generation failed")
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine resolves a prompt: it embeds the text, acquires a request-scoped
// catalog session, runs the detectors in order and falls back to semantic
// search when none of them matches. Only the keyword cache is shared across
// requests, and it is read-only here.
type Engine struct {
	store     CatalogStore
	cache     *KeywordCache
	embedder  Embedder
	detectors []Detector
	fallback  *semanticFallback
	logger    *zap.Logger
}

func NewEngine(store CatalogStore, cache *KeywordCache, embedder Embedder, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		cache:    cache,
		embedder: embedder,
		detectors: []Detector{
			generalCatalogDetector{},
			typeBrandDetector{},
			sectionDetector{},
			brandDetector{},
			genericTypeDetector{},
			brandsByTypeDetector{},
		},
		fallback: &semanticFallback{logger: logger},
		logger:   logger,
	}
}

// Answer resolves one prompt to a response message. The first detector that
// recognizes the prompt owns the answer and short-circuits the rest.
func (e *Engine) Answer(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	embedding, err := e.embedder.Embed(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	session, err := e.store.Session(ctx)
	if err != nil {
		return "", err
	}
	defer session.Release()

	q := &PromptQuery{
		Raw:        prompt,
		Normalized: Normalize(prompt),
		Keywords:   e.cache.Snapshot(),
		Catalog:    session,
	}
	e.logger.Debug("Resolving prompt", zap.String("normalized", q.Normalized))

	for _, detector := range e.detectors {
		msg, matched, err := detector.Attempt(ctx, q)
		if err != nil {
			return "", err
		}
		if matched {
			e.logger.Info("Intent matched", zap.String("detector", detector.Name()))
			return msg, nil
		}
	}

	e.logger.Info("No rule-based intent matched, using semantic fallback")
	return e.fallback.Answer(ctx, session, embedding)
}
