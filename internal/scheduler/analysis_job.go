package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/analytics"
)

const defaultAnalysisTimeout = 5 * time.Minute

// AnalysisRunner executes the analytics pipeline.
type AnalysisRunner interface {
	Run(ctx context.Context, rows []domain.RawRow) (*analytics.Report, error)
}

// ReportStore receives successful reports.
type ReportStore interface {
	Store(report *analytics.Report)
}

// LedgerAnalysisJob re-analyzes the configured ledger and publishes the
// report. A failed run leaves the previous report in place.
type LedgerAnalysisJob struct {
	JobBase
	load    func() ([]domain.RawRow, error)
	runner  AnalysisRunner
	store   ReportStore
	timeout time.Duration
}

// NewLedgerAnalysisJob creates a new LedgerAnalysisJob
func NewLedgerAnalysisJob(load func() ([]domain.RawRow, error), runner AnalysisRunner, store ReportStore) *LedgerAnalysisJob {
	return &LedgerAnalysisJob{
		load:    load,
		runner:  runner,
		store:   store,
		timeout: defaultAnalysisTimeout,
	}
}

// Name returns the job name
func (j *LedgerAnalysisJob) Name() string {
	return "ledger_analysis"
}

// Run executes the ledger analysis job
func (j *LedgerAnalysisJob) Run() error {
	rows, err := j.load()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.runner.Run(ctx, rows)
	if err != nil {
		return err
	}
	j.store.Store(report)

	j.log.Info().
		Str("run_id", report.RunID).
		Int("transactions", len(report.Transactions)).
		Int("flagged", len(report.Flagged)).
		Msg("Ledger analysis published")
	return nil
}
