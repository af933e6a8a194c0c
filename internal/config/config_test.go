package config

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FINTRACK_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "transactions.csv"), cfg.LedgerPath)
	assert.Equal(t, filepath.Join(dir, "model"), cfg.ArtifactDir)
	assert.Equal(t, []string{"Salary", "Income"}, cfg.IncomeCategories)
	assert.Equal(t, map[string]string{"Transport": "Auto & Transport"}, cfg.CategoryAliases)
	assert.True(t, cfg.BudgetDefault.Equal(decimal.NewFromInt(500)))
	assert.Empty(t, cfg.AnalyticsSchedule)

	assert.Equal(t, 100, cfg.Classifier.Trees)
	assert.Equal(t, int64(42), cfg.Classifier.Seed)
	assert.Equal(t, 0.03, cfg.Anomaly.Contamination)
	assert.Equal(t, 3.0, cfg.Anomaly.LargeAmountSigma)
	assert.Equal(t, 6, cfg.Anomaly.OddHourStart)
	assert.Equal(t, 22, cfg.Anomaly.OddHourEnd)
	assert.Equal(t, 3, cfg.Forecast.Horizon)
	assert.Equal(t, 3, cfg.Forecast.LagOrder)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("INCOME_CATEGORIES", "Salary, Bonus ,,")
	t.Setenv("CATEGORY_ALIASES", "Transport=Auto & Transport, Food=Dining, broken")
	t.Setenv("ANOMALY_CONTAMINATION", "0.1")
	t.Setenv("FORECAST_HORIZON", "6")
	t.Setenv("BUDGET_DEFAULT", "250.50")
	t.Setenv("ANALYTICS_SCHEDULE", "@hourly")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"Salary", "Bonus"}, cfg.IncomeCategories)
	assert.Equal(t, map[string]string{"Transport": "Auto & Transport", "Food": "Dining"}, cfg.CategoryAliases)
	assert.Equal(t, 0.1, cfg.Anomaly.Contamination)
	assert.Equal(t, 6, cfg.Forecast.Horizon)
	assert.Equal(t, "250.5", cfg.BudgetDefault.String())
	assert.Equal(t, "@hourly", cfg.AnalyticsSchedule)
}

func TestLoad_InvalidNumberFallsBackToDefault(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "eighty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_RejectsInvalidModelSettings(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ANOMALY_CONTAMINATION", "0"},
		{"ANOMALY_CONTAMINATION", "0.6"},
		{"ANOMALY_ODD_HOUR_END", "24"},
		{"ANOMALY_ODD_HOUR_START", "23"},
		{"FORECAST_LAG_ORDER", "0"},
		{"FORECAST_HORIZON", "-1"},
		{"CLASSIFIER_TREES", "0"},
		{"CLASSIFIER_MIN_CONFIDENCE", "1.5"},
		{"BUDGET_DEFAULT", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("FINTRACK_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestToOptions(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	detector := cfg.Anomaly.ToOptions()
	assert.Equal(t, 100, detector.Forest.Trees)
	assert.Equal(t, 256, detector.Forest.SampleSize)
	assert.Equal(t, 22, detector.Rules.OddHourEnd)

	forecast := cfg.Forecast.ToOptions()
	assert.Equal(t, 3, forecast.Horizon)
	assert.Equal(t, 0.1, forecast.Boosting.LearningRate)

	train := cfg.Classifier.ToTrainOptions()
	assert.Equal(t, 100, train.Trees)
	assert.Equal(t, int64(42), train.Seed)
}
