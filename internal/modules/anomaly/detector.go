// Package anomaly flags suspicious expense transactions by fusing an
// isolation forest with amount and time-of-day rules.
package anomaly

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// Options configures the detector.
type Options struct {
	Forest IsolationForest
	Rules  Rules
}

// DefaultOptions uses 100 trees, 256-point subsamples, 3% contamination and seed 42.
func DefaultOptions() Options {
	return Options{
		Forest: IsolationForest{Trees: 100, SampleSize: 256, Contamination: 0.03, Seed: 42},
		Rules:  DefaultRules(),
	}
}

// FlaggedTransaction is one row of the suspicious transactions output.
type FlaggedTransaction struct {
	domain.Transaction
	Verdict Verdict `json:"verdict"`
}

// Detector scores a whole batch at once.
type Detector struct {
	opts Options
	log  zerolog.Logger
}

// NewDetector creates a detector.
func NewDetector(opts Options, log zerolog.Logger) *Detector {
	return &Detector{
		opts: opts,
		log:  log.With().Str("component", "anomaly_detector").Logger(),
	}
}

// FitAndScore fits standardization and the forest on txns and returns one
// verdict per transaction in input order. Fewer than two transactions is
// an InsufficientDataError; nothing is returned on failure.
func (d *Detector) FitAndScore(ctx context.Context, txns []domain.Transaction) ([]Verdict, error) {
	if len(txns) < 2 {
		return nil, &domain.InsufficientDataError{What: "anomaly detection", Have: len(txns), Need: 2}
	}

	amounts := make([]float64, len(txns))
	hours := make([]float64, len(txns))
	for i, t := range txns {
		amounts[i] = t.AbsAmount()
		hours[i] = float64(t.Hour)
	}
	amountScale, err := FitStandardizer("amount", amounts)
	if err != nil {
		return nil, err
	}
	hourScale, err := FitStandardizer("hour", hours)
	if err != nil {
		return nil, err
	}

	features := make([][]float64, len(txns))
	for i, t := range txns {
		debit := 0.0
		if t.IsDebit() {
			debit = 1
		}
		features[i] = []float64{amountScale.Transform(amounts[i]), hourScale.Transform(hours[i]), debit}
	}

	model, err := d.opts.Forest.Fit(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("failed to fit isolation forest: %w", err)
	}

	verdicts := make([]Verdict, len(txns))
	flagged := 0
	for i, t := range txns {
		verdicts[i] = Fuse(Verdict{
			ModelOutlier: model.IsOutlier(features[i]),
			Score:        model.Score(features[i]),
			LargeAmount:  d.opts.Rules.LargeAmount(features[i][0]),
			OddHour:      d.opts.Rules.OddHour(t.IsDebit(), t.Hour),
			Credit:       t.IsCredit(),
		})
		if verdicts[i].Final {
			flagged++
		}
	}

	d.log.Info().
		Int("transactions", len(txns)).
		Int("flagged", flagged).
		Float64("amount_mean", amountScale.Mean).
		Float64("amount_std", amountScale.Std).
		Msg("Anomaly detection complete")
	return verdicts, nil
}

// Apply returns copies of txns with FraudFlag set from the verdicts.
func Apply(txns []domain.Transaction, verdicts []Verdict) []domain.Transaction {
	out := make([]domain.Transaction, len(txns))
	for i, t := range txns {
		t.FraudFlag = verdicts[i].Final
		out[i] = t
	}
	return out
}

// Flagged returns the transactions whose final flag is set.
func Flagged(txns []domain.Transaction, verdicts []Verdict) []FlaggedTransaction {
	var out []FlaggedTransaction
	for i, t := range txns {
		if verdicts[i].Final {
			t.FraudFlag = true
			out = append(out, FlaggedTransaction{Transaction: t, Verdict: verdicts[i]})
		}
	}
	return out
}
