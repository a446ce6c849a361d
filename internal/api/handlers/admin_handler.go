package handlers

import (
	"errors"

	"catalogo-bot/internal/dto"
	"catalogo-bot/internal/repository"
	"catalogo-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService *service.AuthService
	cache       *service.KeywordCache
	logger      *zap.Logger
}

func NewAdminHandler(authService *service.AuthService, cache *service.KeywordCache, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		cache:       cache,
		logger:      logger,
	}
}

// Login godoc
// @Summary Admin login
// @Description Authenticates the administrative user and issues a Bearer token
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Corpo da requisição inválido.")
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return respond(c, fiber.StatusUnauthorized, "Credenciais inválidas.")
		}
		h.logger.Error("Login failed", zap.Error(err))
		return respond(c, fiber.StatusInternalServerError, "Ocorreu um erro inesperado.")
	}

	return c.JSON(dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.authService.TokenDuration(),
	})
}

// ReloadKeywords godoc
// @Summary Reload the intent keyword cache
// @Description Rebuilds the keyword cache from the store and swaps it atomically
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.MessageResponse
// @Failure 503 {object} dto.MessageResponse
// @Router /admin/keywords/reload [post]
func (h *AdminHandler) ReloadKeywords(c *fiber.Ctx) error {
	if err := h.cache.Load(c.Context()); err != nil {
		if errors.Is(err, repository.ErrStore) {
			h.logger.Error("Keyword reload store failure", zap.Error(err))
			return respond(c, fiber.StatusServiceUnavailable, "Problema ao acessar catálogo.")
		}
		h.logger.Error("Keyword reload failed", zap.Error(err))
		return respond(c, fiber.StatusInternalServerError, "Ocorreu um erro inesperado.")
	}
	return respond(c, fiber.StatusOK, "Palavras-chave de intenção recarregadas.")
}
