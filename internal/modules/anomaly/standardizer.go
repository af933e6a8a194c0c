package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/fintrack/internal/domain"
)

// Standardizer rescales a feature to zero mean and unit variance using
// population statistics fitted once over the whole batch.
type Standardizer struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// FitStandardizer fits mean and standard deviation. A constant feature gets
// scale 1 so that it standardizes to zero rather than dividing by zero.
func FitStandardizer(feature string, values []float64) (Standardizer, error) {
	if len(values) < 2 {
		return Standardizer{}, &domain.InsufficientDataError{What: feature + " standardization", Have: len(values), Need: 2}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	std := math.Sqrt(variance)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return Standardizer{Mean: mean, Std: std}, nil
}

// Transform returns the z-score of v.
func (s Standardizer) Transform(v float64) float64 {
	return (v - s.Mean) / s.Std
}
