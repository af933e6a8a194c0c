package forecasting

import (
	"github.com/aristath/fintrack/internal/domain"
)

// Point is one forecast month. PredictedExpense is passed through as the
// model produced it, including negative values.
type Point struct {
	Month            domain.Month `json:"month"`
	PredictedExpense float64      `json:"predicted_expense"`
	Lags             []float64    `json:"lags"`
}

// Regressor predicts a month's total from its lag features.
type Regressor interface {
	Predict(lags []float64) float64
}

// LagWindow is an immutable fixed-size window of the most recent totals,
// oldest first.
type LagWindow struct {
	values []float64
}

// NewLagWindow copies the given chronological totals into a window.
func NewLagWindow(chronological []float64) LagWindow {
	return LagWindow{values: append([]float64(nil), chronological...)}
}

// Size is the lag order.
func (w LagWindow) Size() int {
	return len(w.values)
}

// Features returns the lag vector, most recent month first.
func (w LagWindow) Features() []float64 {
	out := make([]float64, len(w.values))
	for i := range w.values {
		out[i] = w.values[len(w.values)-1-i]
	}
	return out
}

// Push returns a new window with v as the most recent value and the
// oldest value dropped.
func (w LagWindow) Push(v float64) LagWindow {
	next := make([]float64, len(w.values))
	copy(next, w.values[1:])
	next[len(next)-1] = v
	return LagWindow{values: next}
}

// Rollout folds the model over horizon steps. Each prediction becomes the
// newest lag of the next step, so errors compound across the horizon.
// Points cover the consecutive months after last.
func Rollout(model Regressor, window LagWindow, last domain.Month, horizon int) []Point {
	points := make([]Point, 0, horizon)
	month := last
	for step := 0; step < horizon; step++ {
		month = month.Next()
		features := window.Features()
		prediction := model.Predict(features)
		points = append(points, Point{Month: month, PredictedExpense: prediction, Lags: features})
		window = window.Push(prediction)
	}
	return points
}
