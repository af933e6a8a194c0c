// Package analytics runs the full ledger pipeline: normalize, categorize,
// aggregate, then detect anomalies and forecast expenses over one snapshot.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/aggregation"
	"github.com/aristath/fintrack/internal/modules/anomaly"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/modules/forecasting"
	"github.com/aristath/fintrack/internal/modules/ledger"
)

// ModelSource supplies the classifier used for a run.
type ModelSource interface {
	Current() (*categorization.Model, error)
}

// Report is the complete result of one analysis run.
type Report struct {
	RunID         string                       `json:"run_id"`
	StartedAt     time.Time                    `json:"started_at"`
	CompletedAt   time.Time                    `json:"completed_at"`
	ModelVersion  string                       `json:"model_version"`
	Transactions  []domain.Transaction         `json:"transactions"`
	Uncategorized []int                        `json:"uncategorized"`
	Aggregates    aggregation.Aggregates       `json:"aggregates"`
	Spending      []domain.MonthlyTotal        `json:"spending"`
	Expenses      []domain.MonthlyTotal        `json:"expense_series"`
	Verdicts      []anomaly.Verdict            `json:"verdicts"`
	Flagged       []anomaly.FlaggedTransaction `json:"flagged"`
	Forecast      *forecasting.Report          `json:"forecast"`
	Durations     map[string]float64           `json:"durations_ms"`
}

// Service wires the pipeline stages together. Every stage is a pure
// function of its input, so concurrent runs share nothing but the model.
type Service struct {
	models      ModelSource
	categorizer *categorization.Categorizer
	aggregator  *aggregation.Aggregator
	detector    *anomaly.Detector
	forecaster  *forecasting.Forecaster
	log         zerolog.Logger
}

// NewService creates the analytics service.
func NewService(
	models ModelSource,
	categorizer *categorization.Categorizer,
	aggregator *aggregation.Aggregator,
	detector *anomaly.Detector,
	forecaster *forecasting.Forecaster,
	log zerolog.Logger,
) *Service {
	return &Service{
		models:      models,
		categorizer: categorizer,
		aggregator:  aggregator,
		detector:    detector,
		forecaster:  forecaster,
		log:         log.With().Str("service", "analytics").Logger(),
	}
}

// Run processes raw ledger rows end to end. Any stage failure aborts the
// run and no report is returned.
func (s *Service) Run(ctx context.Context, rows []domain.RawRow) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Durations: make(map[string]float64),
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()
	timed := func(stage string, start time.Time) {
		report.Durations[stage] = float64(time.Since(start).Microseconds()) / 1000
	}

	if len(rows) == 0 {
		return nil, &domain.MissingInputError{Resource: "ledger rows", Hint: "the ledger is empty"}
	}

	start := time.Now()
	txns, err := ledger.Normalize(rows)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	timed("normalize", start)

	model, err := s.models.Current()
	if err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}
	report.ModelVersion = model.Version

	start = time.Now()
	categorized, err := s.categorizer.Categorize(model, txns)
	if err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}
	report.Uncategorized = categorized.Uncategorized
	timed("categorize", start)

	start = time.Now()
	snapshot := s.aggregator.ApplyAliases(categorized.Transactions)
	report.Aggregates = s.aggregator.Aggregate(snapshot)
	report.Spending = aggregation.MonthlySpending(report.Aggregates.Expenses)
	report.Expenses = s.aggregator.ExpenseSeries(snapshot)
	timed("aggregate", start)

	var (
		verdicts       []anomaly.Verdict
		forecast       *forecasting.Report
		detectElapsed  time.Duration
		forecastElapse time.Duration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		begin := time.Now()
		v, err := s.detector.FitAndScore(gctx, snapshot)
		if err != nil {
			return fmt.Errorf("detect anomalies: %w", err)
		}
		verdicts, detectElapsed = v, time.Since(begin)
		return nil
	})
	g.Go(func() error {
		begin := time.Now()
		f, err := s.forecaster.Forecast(gctx, report.Expenses)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		forecast, forecastElapse = f, time.Since(begin)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Analysis run failed")
		return nil, err
	}
	report.Durations["detect"] = float64(detectElapsed.Microseconds()) / 1000
	report.Durations["forecast"] = float64(forecastElapse.Microseconds()) / 1000

	report.Transactions = anomaly.Apply(snapshot, verdicts)
	report.Verdicts = verdicts
	report.Flagged = anomaly.Flagged(snapshot, verdicts)
	report.Forecast = forecast
	report.CompletedAt = time.Now().UTC()

	log.Info().
		Int("transactions", len(report.Transactions)).
		Int("uncategorized", len(report.Uncategorized)).
		Int("flagged", len(report.Flagged)).
		Str("model_version", report.ModelVersion).
		Dur("elapsed", report.CompletedAt.Sub(report.StartedAt)).
		Msg("Analysis run complete")
	return report, nil
}
