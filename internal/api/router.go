package api

import (
	"catalogo-bot/docs"
	"catalogo-bot/internal/api/handlers"
	"catalogo-bot/internal/dto"
	"catalogo-bot/pkg/auth"
	"catalogo-bot/pkg/config"
	"catalogo-bot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	cfg *config.ServerConfig,
	promptHandler *handlers.PromptHandler,
	adminHandler *handlers.AdminHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(dto.MessageResponse{
				Message: "Ocorreu um erro inesperado.",
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Importing docs registers the swagger documentation via init().
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	api.Post("/prompt", promptHandler.HandlePrompt)

	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)
	admin.Post("/keywords/reload", middleware.AdminAuth(jwtManager, appLogger), adminHandler.ReloadKeywords)

	return app
}
