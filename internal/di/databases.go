// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/database"
)

// InitializeDatabases opens fintrack.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// fintrack.db - budgets and classifier training history
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "fintrack.db"),
		Profile: database.ProfileStandard,
		Name:    "fintrack",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fintrack database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate fintrack database: %w", err)
	}
	container.DB = db

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return container, nil
}
