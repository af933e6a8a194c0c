package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aristath/fintrack/internal/domain"
)

const (
	columnDate        = "date"
	columnDescription = "description"
	columnAmount      = "amount"
	columnCategory    = "category"
)

// ReadCSV reads a header-driven ledger. Date, Description and Amount are
// required; Category is optional. Header matching is case-insensitive.
func ReadCSV(r io.Reader) ([]domain.RawRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.MissingInputError{Resource: "ledger header", Hint: "expected Date, Description, Amount"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{columnDate, columnDescription, columnAmount} {
		if _, ok := index[required]; !ok {
			return nil, &domain.MissingInputError{Resource: "ledger column " + required}
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []domain.RawRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &domain.ParseError{Row: line - 1, Field: "record", Err: err}
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		rows = append(rows, domain.RawRow{
			Date:        field(record, columnDate),
			Description: field(record, columnDescription),
			Amount:      field(record, columnAmount),
			Category:    field(record, columnCategory),
		})
	}
	return rows, nil
}

// LoadCSVFile reads a ledger file from disk. An absent file is a MissingInputError.
func LoadCSVFile(path string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &domain.MissingInputError{Resource: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// WriteCSV writes the categorized ledger (input schema plus Category).
func WriteCSV(w io.Writer, txns []domain.Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Date", "Description", "Amount", "Category"}); err != nil {
		return err
	}
	for _, txn := range txns {
		record := []string{FormatDate(txn.Date), txn.Description, txn.Amount.String(), txn.Category}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatDate renders a date, keeping the clock only when one was present.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
