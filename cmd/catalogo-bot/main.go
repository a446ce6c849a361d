package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalogo-bot/internal/api"
	"catalogo-bot/internal/api/handlers"
	"catalogo-bot/internal/repository"
	"catalogo-bot/internal/service"
	"catalogo-bot/pkg/auth"
	"catalogo-bot/pkg/config"
	"catalogo-bot/pkg/logger"
	"catalogo-bot/pkg/postgres"

	"go.uber.org/zap"
)

// @title Catalogo Bot API
// @version 1.0
// @description Atendimento conversacional sobre o catálogo de produtos

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting catalogo-bot service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	catalogRepo := repository.NewCatalogRepository(db, appLogger)
	keywordRepo := repository.NewKeywordRepository(db, appLogger)

	keywordCache := service.NewKeywordCache(keywordRepo, appLogger)
	if err := keywordCache.Load(ctx); err != nil {
		// The service stays up with an empty cache; every prompt then goes
		// through the semantic fallback until a reload succeeds.
		appLogger.Error("Failed to load intent keywords, starting with empty cache", zap.Error(err))
	}

	embeddingService, err := service.NewEmbeddingService(&cfg.Embedding, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding service", zap.Error(err))
	}

	engine := service.NewEngine(catalogRepo, keywordCache, embeddingService, appLogger)

	jwtManager := auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	authService := service.NewAuthService(&cfg.Admin, jwtManager, appLogger)

	promptHandler := handlers.NewPromptHandler(engine, appLogger)
	adminHandler := handlers.NewAdminHandler(authService, keywordCache, appLogger)

	app := api.SetupRouter(&cfg.Server, promptHandler, adminHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
