package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/yukikurage/event-platform-api/internal/config"
	"github.com/yukikurage/event-platform-api/internal/logging"
	"github.com/yukikurage/event-platform-api/internal/seeds"
	"github.com/yukikurage/event-platform-api/internal/server"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("seeding failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer closeStore()

	_, err = seeds.New(store, logger).Run(ctx)
	return err
}
