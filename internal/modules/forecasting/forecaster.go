// Package forecasting predicts the next months of total expenses with a
// lag-feature gradient boosting model rolled forward recursively.
package forecasting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// RecommendedMonths is the history length below which forecasts are
// produced but logged as unreliable.
const RecommendedMonths = 12

// recentMonths is how many actual months accompany the forecast table.
const recentMonths = 3

// historyMonths bounds the actual series returned for charting.
const historyMonths = 12

// Options configures the forecaster.
type Options struct {
	Horizon  int
	LagOrder int
	Boosting GradientBoosting
}

// DefaultOptions forecasts 3 months from 3 lags.
func DefaultOptions() Options {
	return Options{Horizon: 3, LagOrder: 3, Boosting: DefaultBoosting()}
}

// TableRow is one line of the combined actual plus forecast table.
type TableRow struct {
	Month    domain.Month `json:"month"`
	Amount   float64      `json:"amount"`
	Forecast bool         `json:"forecast"`
}

// Report is the forecaster output.
type Report struct {
	Points    []Point               `json:"points"`
	Recent    []domain.MonthlyTotal `json:"recent"`
	History   []domain.MonthlyTotal `json:"history"`
	Table     []TableRow            `json:"table"`
	MAE       *float64              `json:"mae,omitempty"`
	TrainRows int                   `json:"train_rows"`
	TestRows  int                   `json:"test_rows"`
}

// Forecaster fits and rolls out the expense model.
type Forecaster struct {
	opts Options
	log  zerolog.Logger
}

// NewForecaster creates a forecaster.
func NewForecaster(opts Options, log zerolog.Logger) *Forecaster {
	return &Forecaster{
		opts: opts,
		log:  log.With().Str("component", "forecaster").Logger(),
	}
}

// Forecast predicts the months following the latest month of series.
// Only the trailing run of consecutive months is used; it must hold at least
// LagOrder+1 months. The last Horizon lag rows are held out to report MAE
// when there are more rows than that; the rollout uses the model fitted on
// the remaining rows.
func (f *Forecaster) Forecast(ctx context.Context, series []domain.MonthlyTotal) (*Report, error) {
	if f.opts.Horizon < 1 || f.opts.LagOrder < 1 {
		return nil, fmt.Errorf("horizon and lag order must be positive, got %d and %d", f.opts.Horizon, f.opts.LagOrder)
	}
	if _, err := indexSeries(series); err != nil {
		return nil, err
	}

	run := ContiguousTail(series)
	need := f.opts.LagOrder + 1
	if len(run) < need {
		reason := ""
		if len(run) < len(series) {
			reason = fmt.Sprintf("%d months observed, but the latest gap breaks the run", len(series))
		}
		return nil, &domain.InsufficientHistoryError{Have: len(run), Need: need, Reason: reason}
	}
	if len(run) < RecommendedMonths {
		f.log.Warn().
			Int("months", len(run)).
			Int("recommended", RecommendedMonths).
			Msg("Short expense history, forecast may be unreliable")
	}

	rows, err := BuildLagTable(run, f.opts.LagOrder)
	if err != nil {
		return nil, err
	}

	train, test := rows, []LagRow(nil)
	if len(rows) > f.opts.Horizon {
		split := len(rows) - f.opts.Horizon
		train, test = rows[:split], rows[split:]
	}

	x, y := matrix(train)
	model, err := f.opts.Boosting.Fit(ctx, x, y)
	if err != nil {
		return nil, fmt.Errorf("failed to fit expense model: %w", err)
	}

	report := &Report{TrainRows: len(train), TestRows: len(test)}
	if len(test) > 0 {
		actual := make([]float64, len(test))
		predicted := make([]float64, len(test))
		for i, row := range test {
			actual[i] = row.Target
			predicted[i] = model.Predict(row.Lags)
		}
		mae := meanAbsoluteError(actual, predicted)
		report.MAE = &mae
	}

	seed := make([]float64, f.opts.LagOrder)
	for i, p := range run[len(run)-f.opts.LagOrder:] {
		seed[i] = p.Amount
	}
	last := run[len(run)-1].Month
	report.Points = Rollout(model, NewLagWindow(seed), last, f.opts.Horizon)
	report.Recent = tail(run, recentMonths)
	report.History = tail(run, historyMonths)
	for _, p := range report.Recent {
		report.Table = append(report.Table, TableRow{Month: p.Month, Amount: p.Amount})
	}
	for _, p := range report.Points {
		report.Table = append(report.Table, TableRow{Month: p.Month, Amount: p.PredictedExpense, Forecast: true})
	}

	event := f.log.Info().
		Int("months", len(run)).
		Int("train_rows", report.TrainRows).
		Str("from", report.Points[0].Month.String())
	if report.MAE != nil {
		event = event.Float64("mae", *report.MAE)
	}
	event.Msg("Expense forecast complete")
	return report, nil
}

func matrix(rows []LagRow) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = row.Lags
		y[i] = row.Target
	}
	return x, y
}

func tail(series []domain.MonthlyTotal, n int) []domain.MonthlyTotal {
	if len(series) > n {
		series = series[len(series)-n:]
	}
	return append([]domain.MonthlyTotal(nil), series...)
}
