package di

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/aggregation"
	"github.com/aristath/fintrack/internal/modules/analytics"
	"github.com/aristath/fintrack/internal/modules/anomaly"
	"github.com/aristath/fintrack/internal/modules/budgets"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/modules/forecasting"
	"github.com/aristath/fintrack/internal/modules/ledger"
)

// InitializeServices builds the classifier, pipeline stages and services.
// The classifier is loaded from its artifacts. Without artifacts the
// registry stays empty and every run fails with ErrNotTrained until the
// classifier is trained explicitly.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.LoadTrainingSet = func() ([]categorization.Example, error) {
		if cfg.TrainingSetPath == "" {
			return categorization.DefaultTrainingSet(), nil
		}
		return categorization.LoadTrainingSet(cfg.TrainingSetPath)
	}
	container.LoadLedger = func() ([]domain.RawRow, error) {
		return ledger.LoadCSVFile(cfg.LedgerPath)
	}

	// Classifier
	container.Artifacts = categorization.NewArtifactStore(cfg.ArtifactDir)
	container.Registry = categorization.NewRegistry(
		container.Artifacts,
		container.VersionRepo,
		cfg.Classifier.ToTrainOptions(),
		log,
	)
	if err := container.Registry.Load(); err != nil {
		if !errors.Is(err, categorization.ErrNotTrained) {
			return fmt.Errorf("failed to load classifier: %w", err)
		}
		log.Warn().
			Str("artifact_dir", cfg.ArtifactDir).
			Msg("No classifier artifacts, train first (fintrack train or POST /api/classifier/train)")
	}
	container.Categorizer = categorization.NewCategorizer(cfg.Classifier.MinConfidence, log)

	// Pipeline stages
	container.PDFImporter = ledger.NewPDFImporter(log)
	container.Aggregator = aggregation.NewAggregator(cfg.IncomeCategories, cfg.CategoryAliases, log)
	container.Detector = anomaly.NewDetector(cfg.Anomaly.ToOptions(), log)
	container.Forecaster = forecasting.NewForecaster(cfg.Forecast.ToOptions(), log)

	// Services
	container.BudgetService = budgets.NewService(container.BudgetRepo, cfg.BudgetDefault, log)
	container.AnalyticsService = analytics.NewService(
		container.Registry,
		container.Categorizer,
		container.Aggregator,
		container.Detector,
		container.Forecaster,
		log,
	)
	container.ReportCache = analytics.NewCache()
	container.Reports = NewReportPublisher(container.ReportCache, container.BudgetService, log)

	log.Info().
		Bool("classifier_trained", container.Registry.Trained()).
		Msg("Services initialized")
	return nil
}
