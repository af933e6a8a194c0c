// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/modules/anomaly"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/modules/forecasting"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for the database, artifacts and ledger (always absolute)
	LogLevel           string
	LogPretty          bool
	Port               int
	DevMode            bool
	LedgerPath         string
	ArtifactDir        string
	TrainingSetPath    string // empty = built-in examples
	IncomeCategories   []string
	CategoryAliases    map[string]string
	BudgetDefault      decimal.Decimal
	AnalyticsSchedule  string // empty = disabled
	CheckpointSchedule string
	Classifier         ClassifierConfig
	Anomaly            AnomalyConfig
	Forecast           ForecastConfig
}

// ClassifierConfig configures the category classifier
type ClassifierConfig struct {
	Trees         int
	Seed          int64
	MinConfidence float64
}

// AnomalyConfig configures the anomaly detector
type AnomalyConfig struct {
	Contamination    float64
	LargeAmountSigma float64
	OddHourStart     int
	OddHourEnd       int
	Trees            int
	SampleSize       int
	Seed             int64
}

// ForecastConfig configures the expense forecaster
type ForecastConfig struct {
	Horizon      int
	LagOrder     int
	Trees        int
	LearningRate float64
	MaxDepth     int
}

// ToTrainOptions converts the classifier config to training options
func (c ClassifierConfig) ToTrainOptions() categorization.TrainOptions {
	return categorization.TrainOptions{Trees: c.Trees, Seed: c.Seed}
}

// ToOptions converts the anomaly config to detector options
func (c AnomalyConfig) ToOptions() anomaly.Options {
	return anomaly.Options{
		Forest: anomaly.IsolationForest{
			Trees:         c.Trees,
			SampleSize:    c.SampleSize,
			Contamination: c.Contamination,
			Seed:          c.Seed,
		},
		Rules: anomaly.Rules{
			LargeAmountSigma: c.LargeAmountSigma,
			OddHourStart:     c.OddHourStart,
			OddHourEnd:       c.OddHourEnd,
		},
	}
}

// ToOptions converts the forecast config to forecaster options
func (c ForecastConfig) ToOptions() forecasting.Options {
	return forecasting.Options{
		Horizon:  c.Horizon,
		LagOrder: c.LagOrder,
		Boosting: forecasting.GradientBoosting{
			Trees:        c.Trees,
			LearningRate: c.LearningRate,
			MaxDepth:     c.MaxDepth,
		},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("FINTRACK_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            dataDir,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("LOG_PRETTY", true),
		Port:               getEnvAsInt("PORT", 8080),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LedgerPath:         getEnv("LEDGER_PATH", filepath.Join(dataDir, "transactions.csv")),
		ArtifactDir:        getEnv("ARTIFACT_DIR", filepath.Join(dataDir, "model")),
		TrainingSetPath:    getEnv("TRAINING_SET_PATH", ""),
		IncomeCategories:   getEnvAsList("INCOME_CATEGORIES", []string{"Salary", "Income"}),
		CategoryAliases:    getEnvAsMap("CATEGORY_ALIASES", map[string]string{"Transport": "Auto & Transport"}),
		BudgetDefault:      getEnvAsDecimal("BUDGET_DEFAULT", decimal.NewFromInt(500)),
		AnalyticsSchedule:  getEnv("ANALYTICS_SCHEDULE", ""),
		CheckpointSchedule: getEnv("CHECKPOINT_SCHEDULE", "@hourly"),
		Classifier: ClassifierConfig{
			Trees:         getEnvAsInt("CLASSIFIER_TREES", 100),
			Seed:          int64(getEnvAsInt("CLASSIFIER_SEED", 42)),
			MinConfidence: getEnvAsFloat("CLASSIFIER_MIN_CONFIDENCE", 0),
		},
		Anomaly: AnomalyConfig{
			Contamination:    getEnvAsFloat("ANOMALY_CONTAMINATION", 0.03),
			LargeAmountSigma: getEnvAsFloat("ANOMALY_LARGE_AMOUNT_SIGMA", 3),
			OddHourStart:     getEnvAsInt("ANOMALY_ODD_HOUR_START", 6),
			OddHourEnd:       getEnvAsInt("ANOMALY_ODD_HOUR_END", 22),
			Trees:            getEnvAsInt("ANOMALY_TREES", 100),
			SampleSize:       getEnvAsInt("ANOMALY_SAMPLE_SIZE", 256),
			Seed:             int64(getEnvAsInt("ANOMALY_SEED", 42)),
		},
		Forecast: ForecastConfig{
			Horizon:      getEnvAsInt("FORECAST_HORIZON", 3),
			LagOrder:     getEnvAsInt("FORECAST_LAG_ORDER", 3),
			Trees:        getEnvAsInt("FORECAST_TREES", 100),
			LearningRate: getEnvAsFloat("FORECAST_LEARNING_RATE", 0.1),
			MaxDepth:     getEnvAsInt("FORECAST_MAX_DEPTH", 3),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the models cannot run with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be within 1..65535, got %d", c.Port)
	}
	if c.Classifier.Trees < 1 {
		return fmt.Errorf("CLASSIFIER_TREES must be positive, got %d", c.Classifier.Trees)
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("CLASSIFIER_MIN_CONFIDENCE must be within [0, 1], got %g", c.Classifier.MinConfidence)
	}
	if c.Anomaly.Contamination <= 0 || c.Anomaly.Contamination > 0.5 {
		return fmt.Errorf("ANOMALY_CONTAMINATION must be within (0, 0.5], got %g", c.Anomaly.Contamination)
	}
	if c.Anomaly.Trees < 1 || c.Anomaly.SampleSize < 2 {
		return fmt.Errorf("ANOMALY_TREES must be positive and ANOMALY_SAMPLE_SIZE at least 2")
	}
	for _, hour := range []int{c.Anomaly.OddHourStart, c.Anomaly.OddHourEnd} {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("odd-hour bounds must be within 0..23, got %d", hour)
		}
	}
	if c.Anomaly.OddHourStart > c.Anomaly.OddHourEnd {
		return fmt.Errorf("ANOMALY_ODD_HOUR_START (%d) must not exceed ANOMALY_ODD_HOUR_END (%d)",
			c.Anomaly.OddHourStart, c.Anomaly.OddHourEnd)
	}
	if c.Forecast.Horizon < 1 || c.Forecast.LagOrder < 1 {
		return fmt.Errorf("FORECAST_HORIZON and FORECAST_LAG_ORDER must be at least 1")
	}
	if c.Forecast.Trees < 1 || c.Forecast.MaxDepth < 1 || c.Forecast.LearningRate <= 0 {
		return fmt.Errorf("FORECAST_TREES, FORECAST_MAX_DEPTH and FORECAST_LEARNING_RATE must be positive")
	}
	if c.BudgetDefault.IsNegative() {
		return fmt.Errorf("BUDGET_DEFAULT must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvAsMap parses "a=b,c=d". Malformed pairs are skipped.
func getEnvAsMap(key string, defaultValue map[string]string) map[string]string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := make(map[string]string)
	for _, pair := range getEnvAsList(key, nil) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
