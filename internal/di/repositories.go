package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/modules/budgets"
	"github.com/aristath/fintrack/internal/modules/categorization"
)

// InitializeRepositories creates the SQLite-backed repositories
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	container.BudgetRepo = budgets.NewRepository(container.DB.Conn(), log)
	container.VersionRepo = categorization.NewVersionRepository(container.DB.Conn(), log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
