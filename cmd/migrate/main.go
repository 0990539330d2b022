package main

import (
	"context"
	"log/slog"
	"os"

	"pomodisc/backend/internal/config"
	"pomodisc/backend/internal/db"
	"pomodisc/backend/internal/repository"
	"pomodisc/backend/internal/settings"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir)); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	moved, err := settings.MigrateLegacy(context.Background(), repository.NewSettingsRepository(database))
	if err != nil {
		logger.Error("migrate legacy settings", "error", err)
		os.Exit(1)
	}

	logger.Info("migrations applied successfully", "legacy_break_url_moved", moved)
}
