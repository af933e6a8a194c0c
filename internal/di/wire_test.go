package di

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/modules/ledger"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:            dir,
		Port:               8080,
		LedgerPath:         filepath.Join(dir, "transactions.csv"),
		ArtifactDir:        filepath.Join(dir, "model"),
		IncomeCategories:   []string{"Salary", "Income"},
		CategoryAliases:    map[string]string{"Transport": "Auto & Transport"},
		BudgetDefault:      decimal.NewFromInt(500),
		CheckpointSchedule: "@hourly",
		Classifier:         config.ClassifierConfig{Trees: 20, Seed: 42},
		Anomaly: config.AnomalyConfig{
			Contamination: 0.03, LargeAmountSigma: 3, OddHourStart: 6, OddHourEnd: 22,
			Trees: 50, SampleSize: 256, Seed: 42,
		},
		Forecast: config.ForecastConfig{Horizon: 3, LagOrder: 3, Trees: 50, LearningRate: 0.1, MaxDepth: 3},
	}
}

func writeLedger(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, ledger.WriteCSV(f, testingpkg.SyntheticLedger(domain.Month{Year: 2023, Month: 1}, 14)))
}

func train(t *testing.T, container *Container) {
	t.Helper()
	_, err := container.Registry.Retrain(context.Background(), categorization.DefaultTrainingSet())
	require.NoError(t, err)
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.BudgetRepo)
	assert.NotNil(t, container.AnalyticsService)
	assert.NotNil(t, container.Reports)
	assert.False(t, container.Registry.Trained(), "wiring never trains the classifier")
	assert.False(t, container.Artifacts.Exists())

	history, err := container.VersionRepo.List(10)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.NotNil(t, jobs.Checkpoint)
	assert.Nil(t, jobs.LedgerAnalysis, "analysis job is disabled without a schedule")
	assert.Equal(t, 1, container.Scheduler.Jobs())
}

func TestWire_UntrainedRunFailsFast(t *testing.T) {
	cfg := testConfig(t)
	cfg.AnalyticsSchedule = "@every 1h"
	writeLedger(t, cfg.LedgerPath)

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	rows, err := container.LoadLedger()
	require.NoError(t, err)

	report, err := container.AnalyticsService.Run(context.Background(), rows)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, categorization.ErrNotTrained)
	assert.Equal(t, http.StatusNotFound, domain.HTTPStatus(err))

	err = container.Scheduler.RunNow(jobs.LedgerAnalysis)
	assert.ErrorIs(t, err, categorization.ErrNotTrained)
	_, err = container.Reports.Latest()
	assert.Error(t, err, "nothing is published")
	assert.False(t, container.Artifacts.Exists(), "a failed run leaves no artifacts behind")
}

func TestWire_ReusesPersistedClassifier(t *testing.T) {
	cfg := testConfig(t)

	first, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	train(t, first)
	model, err := first.Registry.Current()
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	reloaded, err := second.Registry.Current()
	require.NoError(t, err)
	assert.Equal(t, model.Version, reloaded.Version)

	history, err := second.VersionRepo.List(10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestWire_ScheduledAnalysisPublishesAndSeedsBudgets(t *testing.T) {
	cfg := testConfig(t)
	cfg.AnalyticsSchedule = "@every 1h"
	writeLedger(t, cfg.LedgerPath)

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })
	require.NotNil(t, jobs.LedgerAnalysis)
	assert.Equal(t, 2, container.Scheduler.Jobs())
	train(t, container)

	require.NoError(t, container.Scheduler.RunNow(jobs.LedgerAnalysis))

	report, err := container.Reports.Latest()
	require.NoError(t, err)
	require.NotEmpty(t, report.Aggregates.Expenses)

	month := report.Aggregates.Expenses[0].Month
	seeded, err := container.BudgetRepo.List(month)
	require.NoError(t, err)
	require.NotEmpty(t, seeded)
	assert.True(t, seeded[0].Amount.Equal(decimal.NewFromInt(500)))
}

func TestWire_TrainingSetLoadedOnDemand(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainingSetPath = filepath.Join(cfg.DataDir, "missing.yaml")

	container, _, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	_, err = container.LoadTrainingSet()
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.CheckpointSchedule = "whenever"

	_, _, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
