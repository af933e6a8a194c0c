// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/fintrack/internal/database"
	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/aggregation"
	"github.com/aristath/fintrack/internal/modules/analytics"
	"github.com/aristath/fintrack/internal/modules/anomaly"
	"github.com/aristath/fintrack/internal/modules/budgets"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/modules/forecasting"
	"github.com/aristath/fintrack/internal/modules/ledger"
	"github.com/aristath/fintrack/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server for handler construction.
type Container struct {
	// Database
	DB *database.DB

	// Repositories
	BudgetRepo  *budgets.Repository
	VersionRepo *categorization.VersionRepository

	// Classifier
	Artifacts   *categorization.ArtifactStore
	Registry    *categorization.Registry
	Categorizer *categorization.Categorizer

	// Pipeline stages
	PDFImporter *ledger.PDFImporter
	Aggregator  *aggregation.Aggregator
	Detector    *anomaly.Detector
	Forecaster  *forecasting.Forecaster

	// Services
	BudgetService    *budgets.Service
	AnalyticsService *analytics.Service
	ReportCache      *analytics.Cache
	Reports          *ReportPublisher

	// Sources
	LoadLedger      func() ([]domain.RawRow, error)
	LoadTrainingSet func() ([]categorization.Example, error)

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	LedgerAnalysis *scheduler.LedgerAnalysisJob // nil when ANALYTICS_SCHEDULE is empty
	Checkpoint     *scheduler.CheckpointJob
}

// Close releases the database. Safe on a partially built container.
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
