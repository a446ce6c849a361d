package service

import (
	"context"
	"fmt"
	"strings"

	"catalogo-bot/pkg/config"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// EmbeddingDimensions is the vector size every stored and queried embedding
// must have. Any other shape is a hard failure.
const EmbeddingDimensions = 768

// EmbeddingService generates prompt embeddings through an OpenAI-compatible
// endpoint (Ollama, LocalAI, vLLM or the real thing). It is stateless and
// safe for concurrent use.
type EmbeddingService struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
}

func NewEmbeddingService(cfg *config.EmbeddingConfig, logger *zap.Logger) (*EmbeddingService, error) {
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible servers reject empty tokens but accept
		// any non-empty placeholder.
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &EmbeddingService{
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Embed returns the vector for a text. The text is lowercased and trimmed
// before embedding; diacritics are preserved.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := strings.TrimSpace(strings.ToLower(text))
	if processed == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, []string{processed})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding model returned no vector")
	}
	if len(vectors[0]) != EmbeddingDimensions {
		return nil, fmt.Errorf("unexpected embedding dimension: %d", len(vectors[0]))
	}
	return vectors[0], nil
}
