package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/analytics"
)

// BudgetSeeder creates default budgets for newly seen (month, category) pairs.
type BudgetSeeder interface {
	SeedDefaults(expenses []domain.MonthlyAggregate) (int, error)
}

// ReportPublisher caches each successful report and seeds default budgets
// for its expense categories. Both the HTTP run endpoint and the scheduled
// job publish through it.
type ReportPublisher struct {
	cache  *analytics.Cache
	seeder BudgetSeeder
	log    zerolog.Logger
}

// NewReportPublisher creates a publisher. seeder may be nil.
func NewReportPublisher(cache *analytics.Cache, seeder BudgetSeeder, log zerolog.Logger) *ReportPublisher {
	return &ReportPublisher{
		cache:  cache,
		seeder: seeder,
		log:    log.With().Str("component", "report_publisher").Logger(),
	}
}

// Store publishes a report. Budget seeding failures are logged, not fatal.
func (p *ReportPublisher) Store(report *analytics.Report) {
	if report == nil {
		return
	}
	p.cache.Store(report)

	if p.seeder == nil {
		return
	}
	created, err := p.seeder.SeedDefaults(report.Aggregates.Expenses)
	if err != nil {
		p.log.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to seed default budgets")
		return
	}
	if created > 0 {
		p.log.Info().Int("created", created).Msg("Seeded default budgets")
	}
}

// Latest returns the most recent report.
func (p *ReportPublisher) Latest() (*analytics.Report, error) {
	return p.cache.Latest()
}

// LatestExpenses returns the expense aggregates of the most recent report.
func (p *ReportPublisher) LatestExpenses() ([]domain.MonthlyAggregate, error) {
	return p.cache.LatestExpenses()
}
