package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/analytics"
	"github.com/aristath/fintrack/internal/modules/anomaly"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/modules/ledger"
)

const (
	categorizedFile = "categorized_transactions.csv"
	flaggedFile     = "fraud_transactions.csv"
)

type trainCmd struct {
	Examples string `type:"existingfile" help:"YAML training set (defaults to TRAINING_SET_PATH or the built-in examples)."`
}

func (c *trainCmd) Run(a *app) error {
	var (
		examples []categorization.Example
		err      error
	)
	if c.Examples != "" {
		examples, err = categorization.LoadTrainingSet(c.Examples)
	} else {
		examples, err = a.container.LoadTrainingSet()
	}
	if err != nil {
		return err
	}

	model, err := a.container.Registry.Retrain(a.ctx, examples)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "trained %s on %d examples (%d labels)\n", model.Version, len(examples), len(model.Labels()))
	return nil
}

type categorizeCmd struct {
	Ledger string `help:"Ledger CSV (defaults to LEDGER_PATH)."`
	Out    string `default:"categorized_transactions.csv" help:"Output CSV, '-' for stdout."`
}

func (c *categorizeCmd) Run(a *app) error {
	txns, err := loadTransactions(a, c.Ledger)
	if err != nil {
		return err
	}
	result, err := categorize(a, txns)
	if err != nil {
		return err
	}

	err = withOutput(c.Out, func(w io.Writer) error {
		return ledger.WriteCSV(w, result.Transactions)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d transactions, %d uncategorized\n", len(result.Transactions), len(result.Uncategorized))
	return nil
}

type detectCmd struct {
	Ledger string `help:"Ledger CSV (defaults to LEDGER_PATH)."`
	Out    string `default:"fraud_transactions.csv" help:"Output CSV, '-' for stdout."`
}

func (c *detectCmd) Run(a *app) error {
	txns, err := loadTransactions(a, c.Ledger)
	if err != nil {
		return err
	}
	result, err := categorize(a, txns)
	if err != nil {
		return err
	}

	snapshot := a.container.Aggregator.ApplyAliases(result.Transactions)
	verdicts, err := a.container.Detector.FitAndScore(a.ctx, snapshot)
	if err != nil {
		return err
	}
	return withOutput(c.Out, func(w io.Writer) error {
		return analytics.WriteFlaggedCSV(w, anomaly.Flagged(snapshot, verdicts))
	})
}

type forecastCmd struct {
	Ledger string `help:"Ledger CSV (defaults to LEDGER_PATH)."`
}

func (c *forecastCmd) Run(a *app) error {
	txns, err := loadTransactions(a, c.Ledger)
	if err != nil {
		return err
	}
	result, err := categorize(a, txns)
	if err != nil {
		return err
	}

	series := a.container.Aggregator.ExpenseSeries(a.container.Aggregator.ApplyAliases(result.Transactions))
	report, err := a.container.Forecaster.Forecast(a.ctx, series)
	if err != nil {
		return err
	}
	return analytics.WriteForecastTable(os.Stdout, report)
}

type importPDFCmd struct {
	Statement string `arg:"" type:"existingfile" help:"PDF bank statement."`
	Out       string `default:"-" help:"Output ledger CSV, '-' for stdout."`
}

func (c *importPDFCmd) Run(a *app) error {
	f, err := os.Open(c.Statement)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	rows, err := a.container.PDFImporter.Extract(f, info.Size())
	if err != nil {
		return err
	}
	txns, err := ledger.Normalize(rows)
	if err != nil {
		return err
	}
	return withOutput(c.Out, func(w io.Writer) error {
		return ledger.WriteCSV(w, txns)
	})
}

type runCmd struct {
	Ledger string `help:"Ledger CSV (defaults to LEDGER_PATH)."`
	OutDir string `name:"out-dir" default:"." help:"Directory for the output CSV files."`
}

func (c *runCmd) Run(a *app) error {
	rows, err := loadRows(a, c.Ledger)
	if err != nil {
		return err
	}
	report, err := a.container.AnalyticsService.Run(a.ctx, rows)
	if err != nil {
		return err
	}
	a.container.Reports.Store(report)

	a.log.Debug().Str("run_id", report.RunID).Str("out_dir", c.OutDir).Msg("Writing pipeline outputs")
	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return err
	}
	err = withOutput(filepath.Join(c.OutDir, categorizedFile), func(w io.Writer) error {
		return ledger.WriteCSV(w, report.Transactions)
	})
	if err != nil {
		return err
	}
	err = withOutput(filepath.Join(c.OutDir, flaggedFile), func(w io.Writer) error {
		return analytics.WriteFlaggedCSV(w, report.Flagged)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "run %s: %d transactions, %d uncategorized, %d flagged\n\n",
		report.RunID, len(report.Transactions), len(report.Uncategorized), len(report.Flagged))
	return analytics.WriteForecastTable(os.Stdout, report.Forecast)
}

func loadRows(a *app, path string) ([]domain.RawRow, error) {
	if path == "" {
		return a.container.LoadLedger()
	}
	return ledger.LoadCSVFile(path)
}

func loadTransactions(a *app, path string) ([]domain.Transaction, error) {
	rows, err := loadRows(a, path)
	if err != nil {
		return nil, err
	}
	return ledger.Normalize(rows)
}

func categorize(a *app, txns []domain.Transaction) (*categorization.Result, error) {
	model, err := a.container.Registry.Current()
	if err != nil {
		return nil, err
	}
	return a.container.Categorizer.Categorize(model, txns)
}

// withOutput writes to path, or stdout when path is "-".
func withOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
