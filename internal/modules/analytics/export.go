package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/aristath/fintrack/internal/modules/anomaly"
	"github.com/aristath/fintrack/internal/modules/forecasting"
	"github.com/aristath/fintrack/internal/modules/ledger"
)

// WriteFlaggedCSV writes the suspicious transactions with their signals.
func WriteFlaggedCSV(w io.Writer, flagged []anomaly.FlaggedTransaction) error {
	writer := csv.NewWriter(w)
	header := []string{"Date", "Description", "Amount", "Category", "transaction_hour", "transaction_type",
		"model_outlier", "anomaly_score", "large_amount_flag", "odd_hour_flag", "fraud_flag"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, f := range flagged {
		record := []string{
			ledger.FormatDate(f.Date),
			f.Description,
			f.Amount.String(),
			f.Category,
			strconv.Itoa(f.Hour),
			string(f.Type),
			strconv.FormatBool(f.Verdict.ModelOutlier),
			strconv.FormatFloat(f.Verdict.Score, 'f', 4, 64),
			strconv.FormatBool(f.Verdict.LargeAmount),
			strconv.FormatBool(f.Verdict.OddHour),
			strconv.FormatBool(f.Verdict.Final),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteForecastTable prints the recent actual months followed by the
// forecast months as an aligned text table.
func WriteForecastTable(w io.Writer, report *forecasting.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Month\tExpense\tKind")
	for _, row := range report.Table {
		kind := "actual"
		if row.Forecast {
			kind = "forecast"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", row.Month, row.Amount, kind)
	}
	if report.MAE != nil {
		fmt.Fprintf(tw, "\nMAE (held-out %d months)\t%.2f\t\n", report.TestRows, *report.MAE)
	}
	return tw.Flush()
}
