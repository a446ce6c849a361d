package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogo-bot/internal/dto"
	"catalogo-bot/internal/repository"
	"catalogo-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PromptService resolves a free-text prompt to an answer message.
type PromptService interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

type PromptHandler struct {
	engine PromptService
	logger *zap.Logger
}

func NewPromptHandler(engine PromptService, logger *zap.Logger) *PromptHandler {
	return &PromptHandler{
		engine: engine,
		logger: logger,
	}
}

// HandlePrompt godoc
// @Summary Answer a catalog question
// @Description Classifies a free-text question about the catalog and answers from the relational data, falling back to semantic search
// @Tags prompt
// @Accept json
// @Produce json
// @Param request body dto.PromptRequest true "Prompt request"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.MessageResponse
// @Failure 503 {object} dto.MessageResponse
// @Failure 500 {object} dto.MessageResponse
// @Router /prompt [post]
func (h *PromptHandler) HandlePrompt(c *fiber.Ctx) error {
	var req dto.PromptRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == nil {
		return respond(c, fiber.StatusBadRequest, "Corpo da requisição JSON deve conter um campo 'prompt'.")
	}
	if strings.TrimSpace(*req.Prompt) == "" {
		return respond(c, fiber.StatusBadRequest, "O campo 'prompt' não pode estar vazio.")
	}

	msg, err := h.engine.Answer(c.Context(), *req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPrompt):
			return respond(c, fiber.StatusBadRequest, "O campo 'prompt' não pode estar vazio.")
		case errors.Is(err, service.ErrEmbedding):
			h.logger.Error("Embedding failed", zap.Error(err))
			return respond(c, fiber.StatusBadRequest, fmt.Sprintf("Erro ao processar texto: %v", err))
		case errors.Is(err, repository.ErrStore):
			h.logger.Error("Catalog store failure", zap.Error(err))
			return respond(c, fiber.StatusServiceUnavailable, "Problema ao acessar catálogo.")
		default:
			h.logger.Error("Unexpected failure resolving prompt", zap.Error(err))
			return respond(c, fiber.StatusInternalServerError, "Ocorreu um erro inesperado.")
		}
	}
	return respond(c, fiber.StatusOK, msg)
}

// respond normalizes every message to a single trimmed line.
func respond(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.MessageResponse{Message: service.SingleLine(message)})
}
