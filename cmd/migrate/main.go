package main

import (
	"os"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/model"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	if cfg.Database.Driver == database.DriverPostgres && cfg.Database.Connection == "" {
		log.Error("Migrate", "DB_CONNECTION_STRING is not set", nil)
		os.Exit(1)
	}

	// 2. Connect
	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Error("Migrate", "Failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log.Info("Migrate", "Starting migration", map[string]interface{}{"driver": cfg.Database.Driver})

	// 3. Extensions (postgres only, idempotent)
	if cfg.Database.Driver == database.DriverPostgres {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
			log.Warn("Migrate", "Failed to create extension, continuing", map[string]interface{}{"error": err.Error()})
		}
	}

	// 4. Tables and indexes
	if err := model.AutoMigrate(db); err != nil {
		log.Error("Migrate", "AutoMigrate failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log.Info("Migrate", "Database migration completed", map[string]interface{}{"tables": len(model.All())})
}
