// Package ledger turns raw statement rows into normalized transactions and
// reads/writes the tabular ledger formats the engine consumes.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// dateLayouts are tried in order. Layouts without a clock component yield hour 0.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a ledger date string using the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// ParseAmount parses a signed decimal amount. Thousands separators and a
// leading currency symbol are tolerated.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if strings.HasPrefix(clean, "-$") {
		clean = "-" + clean[2:]
	}
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(clean)
}

// Normalize validates raw rows and reshapes them into the canonical schema.
// The whole batch fails on the first malformed row; rows are never dropped.
func Normalize(rows []domain.RawRow) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0, len(rows))
	for i, row := range rows {
		txn, err := NormalizeRow(row)
		if err != nil {
			if pe, ok := err.(*domain.ParseError); ok {
				pe.Row = i + 1
			}
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// NormalizeRow converts a single raw row.
func NormalizeRow(row domain.RawRow) (domain.Transaction, error) {
	date, err := ParseDate(row.Date)
	if err != nil {
		return domain.Transaction{}, &domain.ParseError{Field: "date", Value: row.Date, Err: err}
	}
	amount, err := ParseAmount(row.Amount)
	if err != nil {
		return domain.Transaction{}, &domain.ParseError{Field: "amount", Value: row.Amount, Err: err}
	}

	return domain.Transaction{
		Date:        date,
		Description: strings.TrimSpace(row.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(row.Category),
		Hour:        date.Hour(),
		Type:        domain.TypeOf(amount),
	}, nil
}
