// Command fintrack runs the ledger analytics from the command line: import
// statements, train the classifier, and produce the categorized ledger,
// flagged transactions and expense forecast.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/di"
	"github.com/aristath/fintrack/pkg/logger"
)

// app is the wired runtime handed to every command.
type app struct {
	ctx       context.Context
	log       zerolog.Logger
	container *di.Container
}

// cli commands / args available
var cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Train      trainCmd      `cmd:"" help:"Retrain the category classifier."`
	Categorize categorizeCmd `cmd:"" help:"Label every transaction and write the categorized ledger."`
	Detect     detectCmd     `cmd:"" help:"Flag suspicious transactions."`
	Forecast   forecastCmd   `cmd:"" help:"Forecast monthly expenses."`
	ImportPDF  importPDFCmd  `cmd:"" name:"import-pdf" help:"Extract transactions from a PDF bank statement."`
	Run        runCmd        `cmd:"" help:"Run the full pipeline and write every output."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("fintrack"),
		kong.Description("Personal transaction analytics."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)

	level := cfg.LogLevel
	if cli.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: cfg.LogPretty, Output: os.Stderr})
	a := &app{
		ctx: context.Background(),
		log: logger.Component(log, "cli"),
	}

	container, _, err := di.Wire(cfg, log)
	kctx.FatalIfErrorf(err)
	a.container = container

	err = kctx.Run(a)
	container.Close()
	kctx.FatalIfErrorf(err)
}
