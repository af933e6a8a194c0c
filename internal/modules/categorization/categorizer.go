package categorization

import (
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
)

// Result is a categorized ledger plus the rows that fell back to the sentinel.
type Result struct {
	Transactions  []domain.Transaction `json:"transactions"`
	Uncategorized []int                `json:"uncategorized"` // indexes into Transactions
}

// UncategorizedTransactions returns the rows that need manual review.
func (r *Result) UncategorizedTransactions() []domain.Transaction {
	out := make([]domain.Transaction, 0, len(r.Uncategorized))
	for _, i := range r.Uncategorized {
		out = append(out, r.Transactions[i])
	}
	return out
}

// Categorizer applies a model to a ledger.
type Categorizer struct {
	minConfidence float64
	log           zerolog.Logger
}

// NewCategorizer creates a categorizer. Predictions whose vote share is below
// minConfidence are treated as unresolved; 0 disables the threshold.
func NewCategorizer(minConfidence float64, log zerolog.Logger) *Categorizer {
	return &Categorizer{
		minConfidence: minConfidence,
		log:           log.With().Str("component", "categorizer").Logger(),
	}
}

// Resolve applies the confidence threshold to a raw prediction. Anything
// below it becomes an unresolved Uncategorized prediction.
func (c *Categorizer) Resolve(p Prediction) Prediction {
	if !p.Resolved || p.Label == "" || p.Confidence < c.minConfidence {
		return Prediction{Label: domain.UncategorizedLabel, Confidence: p.Confidence}
	}
	return p
}

// Classify predicts and resolves a label for each description.
func (c *Categorizer) Classify(model *Model, descriptions []string) ([]Prediction, error) {
	predictions, err := Classify(model, descriptions)
	if err != nil {
		return nil, err
	}
	for i := range predictions {
		predictions[i] = c.Resolve(predictions[i])
	}
	return predictions, nil
}

// Categorize returns labelled copies of the transactions. Unresolved rows get
// the Uncategorized label and are reported, never dropped.
func (c *Categorizer) Categorize(model *Model, txns []domain.Transaction) (*Result, error) {
	descriptions := make([]string, len(txns))
	for i, txn := range txns {
		descriptions[i] = txn.Description
	}

	predictions, err := c.Classify(model, descriptions)
	if err != nil {
		return nil, err
	}

	result := &Result{Transactions: make([]domain.Transaction, len(txns))}
	for i, txn := range txns {
		p := predictions[i]
		if !p.Resolved {
			result.Uncategorized = append(result.Uncategorized, i)
		}
		result.Transactions[i] = txn.WithCategory(p.Label)
	}

	if len(result.Uncategorized) > 0 {
		c.log.Warn().
			Int("uncategorized", len(result.Uncategorized)).
			Int("total", len(txns)).
			Msg("Some transactions could not be categorized, review them manually")
	}
	c.log.Debug().
		Str("model_version", model.Version).
		Int("transactions", len(txns)).
		Msg("Categorization complete")

	return result, nil
}
