package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"Grocery-Receipt-Tracker/cmd/config"
	migration "Grocery-Receipt-Tracker/cmd/database/migrate"
	"Grocery-Receipt-Tracker/internal/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("failed connecting to database", zap.Error(err))
	}
	if err := migration.Migrate(db); err != nil {
		logger.Fatal("failed migrating database", zap.Error(err))
	}

	app, sessionService, err := config.NewApp(db, cfg, logger)
	if err != nil {
		logger.Fatal("failed building application", zap.Error(err))
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			removed, err := sessionService.CleanupExpired(ctx, sessionTTL)
			cancel()
			if err != nil {
				logger.Error("session cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", zap.Int("count", removed))
			}
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
