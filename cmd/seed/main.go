// Command seed provisions the demo catalogue and season tasks. Safe to run
// repeatedly — it only inserts rows that don't exist yet.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rustamov/gift-market/internal/config"
	sqliteRepo "github.com/rustamov/gift-market/internal/repository/sqlite"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.SeedCatalog(context.Background()); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("catalogue seeded", slog.String("database", cfg.DBPath))
}
