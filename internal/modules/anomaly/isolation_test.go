package anomaly

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
)

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(0))
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 2*(0.6931471805599453+eulerGamma)-4.0/3.0, averagePathLength(3), 1e-12)
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 5.0, percentile(values, 1))
	assert.InDelta(t, 1.4, percentile(values, 0.1), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, values, "input must not be reordered")
}

func clusterWithOutlier() [][]float64 {
	x := make([][]float64, 0, 41)
	for i := 0; i < 40; i++ {
		x = append(x, []float64{float64(i%5) * 0.1, float64(i%4) * 0.1})
	}
	return append(x, []float64{10, 10})
}

func TestIsolationForest_IsolatesOutlier(t *testing.T) {
	x := clusterWithOutlier()
	model, err := IsolationForest{Trees: 100, SampleSize: 256, Contamination: 0.03, Seed: 42}.Fit(context.Background(), x)
	require.NoError(t, err)

	outlier := model.Score(x[len(x)-1])
	for _, row := range x[:len(x)-1] {
		assert.Less(t, model.Score(row), outlier)
	}
	assert.True(t, model.IsOutlier(x[len(x)-1]))
}

func TestIsolationForest_Deterministic(t *testing.T) {
	x := clusterWithOutlier()
	f := IsolationForest{Trees: 30, SampleSize: 16, Contamination: 0.05, Seed: 7}

	a, err := f.Fit(context.Background(), x)
	require.NoError(t, err)
	b, err := f.Fit(context.Background(), x)
	require.NoError(t, err)

	for _, row := range x {
		assert.Equal(t, a.Score(row), b.Score(row))
	}
}

func TestIsolationForest_InvalidOptions(t *testing.T) {
	x := clusterWithOutlier()
	tests := []struct {
		name string
		f    IsolationForest
	}{
		{"no trees", IsolationForest{Trees: 0, Contamination: 0.1}},
		{"zero contamination", IsolationForest{Trees: 10, Contamination: 0}},
		{"contamination above half", IsolationForest{Trees: 10, Contamination: 0.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.f.Fit(context.Background(), x)
			assert.Error(t, err)
		})
	}

	_, err := IsolationForest{Trees: 10, Contamination: 0.1}.Fit(context.Background(), x[:1])
	assert.Error(t, err)
}

func TestFitStandardizer(t *testing.T) {
	s, err := FitStandardizer("amount", []float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	assert.InDelta(t, 2, s.Std, 1e-12)
	assert.InDelta(t, 2, s.Transform(9), 1e-12)

	constant, err := FitStandardizer("hour", []float64{12, 12, 12})
	require.NoError(t, err)
	assert.Equal(t, 1.0, constant.Std)
	assert.Equal(t, 0.0, constant.Transform(12))

	_, err = FitStandardizer("amount", []float64{1})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
