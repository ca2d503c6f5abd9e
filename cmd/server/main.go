package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/event-platform-api/internal/auth"
	"github.com/yukikurage/event-platform-api/internal/config"
	"github.com/yukikurage/event-platform-api/internal/logging"
	"github.com/yukikurage/event-platform-api/internal/server"
	"github.com/yukikurage/event-platform-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database and run migrations
	store, closeStore, err := server.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to open data store", zap.Error(err))
	}
	defer closeStore()

	// Session store: Redis when configured, signed cookies otherwise
	sessionStore, err := server.NewSessionStore(cfg)
	if err != nil {
		logger.Fatal("failed to create session store", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.IDPPublicKey != "" {
		if err := tokens.WithIdentityProvider(cfg.IDPPublicKey, cfg.IDPIssuer); err != nil {
			logger.Fatal("failed to configure identity provider", zap.Error(err))
		}
	}

	// Initialize keyword service
	var keywords services.KeywordSuggester
	if svc := services.NewKeywordService(cfg.OpenAIAPIKey); svc != nil {
		keywords = svc
	}

	r := server.NewRouter(cfg, server.Dependencies{
		Store:    store,
		Tokens:   tokens,
		Sessions: sessionStore,
		Keywords: keywords,
		Logger:   logger,
	})

	// Start server
	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("db_driver", cfg.DBDriver))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
