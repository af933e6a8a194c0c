// Package categorization assigns a category label to every transaction from
// its free-text description using a TF-IDF + bagged decision tree classifier.
package categorization

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/fintrack/internal/domain"
)

// Example is one labelled training description.
type Example struct {
	Description string `yaml:"description" json:"description" msgpack:"description"`
	Category    string `yaml:"category" json:"category" msgpack:"category"`
}

// TrainOptions configures classifier training.
type TrainOptions struct {
	Trees    int
	Seed     int64
	MaxDepth int
}

// DefaultTrainOptions mirrors the historical 100-tree, seed 42 configuration.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Trees: 100, Seed: 42}
}

// Model is a trained, immutable classifier. It is handed explicitly to the
// inference functions; nothing looks it up from global state.
type Model struct {
	Version    string      `json:"version"`
	TrainedAt  time.Time   `json:"trained_at"`
	Examples   int         `json:"examples"`
	Vectorizer *Vectorizer `json:"-"`
	Forest     *Forest     `json:"-"`
}

// Labels lists the categories the model can predict.
func (m *Model) Labels() []string {
	return append([]string(nil), m.Forest.Classes...)
}

// Prediction is the classifier output for one description.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Resolved   bool    `json:"resolved"`
}

// Train fits the vectorizer and the ensemble on the labelled examples.
func Train(ctx context.Context, examples []Example, opts TrainOptions) (*Model, error) {
	if len(examples) < 2 {
		return nil, &domain.InsufficientDataError{What: "classifier training", Have: len(examples), Need: 2}
	}
	docs := make([]string, len(examples))
	labels := make([]string, len(examples))
	for i, ex := range examples {
		docs[i] = ex.Description
		labels[i] = ex.Category
	}
	if distinct := len(uniqueSorted(labels)); distinct < 2 {
		return nil, &domain.InsufficientDataError{What: "classifier labels", Have: distinct, Need: 2}
	}

	vectorizer := FitVectorizer(docs)
	if vectorizer.Dim() == 0 {
		return nil, &domain.InsufficientDataError{What: "classifier vocabulary", Have: 0, Need: 1}
	}

	forest, err := FitForest(ctx, vectorizer.TransformAll(docs), labels, ForestOptions{
		Trees:    opts.Trees,
		Seed:     opts.Seed,
		MaxDepth: opts.MaxDepth,
	})
	if err != nil {
		return nil, err
	}

	return &Model{
		Version:    uuid.NewString(),
		TrainedAt:  time.Now().UTC(),
		Examples:   len(examples),
		Vectorizer: vectorizer,
		Forest:     forest,
	}, nil
}

// Classify predicts a label for each description. Descriptions that share no
// vocabulary with the training set cannot be resolved and receive the
// Uncategorized sentinel.
func Classify(model *Model, descriptions []string) ([]Prediction, error) {
	if model == nil || model.Vectorizer == nil || model.Forest == nil {
		return nil, notTrained("classifier model", nil)
	}

	out := make([]Prediction, len(descriptions))
	for i, desc := range descriptions {
		vec := model.Vectorizer.Transform(desc)
		if isZero(vec) {
			out[i] = Prediction{Label: domain.UncategorizedLabel}
			continue
		}
		label, confidence := model.Forest.Predict(vec)
		out[i] = Prediction{Label: label, Confidence: confidence, Resolved: true}
	}
	return out, nil
}
