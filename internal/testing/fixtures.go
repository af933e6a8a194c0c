package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Txn builds a normalized transaction. date accepts "2006-01-02" or "2006-01-02 15:04".
func Txn(date, description, amount, category string) domain.Transaction {
	layout := "2006-01-02"
	if len(date) > len(layout) {
		layout = "2006-01-02 15:04"
	}
	ts, err := time.Parse(layout, date)
	if err != nil {
		panic(err)
	}
	amt := decimal.RequireFromString(amount)
	return domain.Transaction{
		Date:        ts,
		Description: description,
		Amount:      amt,
		Category:    category,
		Hour:        ts.Hour(),
		Type:        domain.TypeOf(amt),
	}
}

// SyntheticLedger returns a deterministic categorized ledger covering the
// given number of months starting at start. Each month has a salary credit,
// rent, two grocery runs, a transport charge and an entertainment charge,
// all inside daytime hours. Grocery spend drifts upward month over month.
func SyntheticLedger(start domain.Month, months int) []domain.Transaction {
	var out []domain.Transaction
	for i := 0; i < months; i++ {
		m := start.Add(i)
		day := func(d, hour int) time.Time {
			return time.Date(m.Year, m.Month, d, hour, 0, 0, 0, time.UTC)
		}
		grocery := decimal.NewFromInt(int64(-150 - 5*i))
		entries := []struct {
			at     time.Time
			desc   string
			amount decimal.Decimal
			cat    string
		}{
			{day(1, 9), "ACME Corp Payroll", decimal.NewFromInt(3000), "Salary"},
			{day(2, 10), "Monthly Rent Payment", decimal.NewFromInt(-1200), "Housing"},
			{day(5, 18), "Whole Foods Market", grocery, "Groceries"},
			{day(20, 17), "Trader Joe's", grocery, "Groceries"},
			{day(12, 8), "Uber Trip", decimal.NewFromInt(-60), "Transport"},
			{day(15, 20), "Netflix Subscription", decimal.NewFromInt(-40 - int64(i%3)), "Entertainment"},
		}
		for _, e := range entries {
			out = append(out, domain.Transaction{
				Date:        e.at,
				Description: e.desc,
				Amount:      e.amount,
				Category:    e.cat,
				Hour:        e.at.Hour(),
				Type:        domain.TypeOf(e.amount),
			})
		}
	}
	return out
}

// MonthlySeries builds consecutive monthly totals starting at start.
func MonthlySeries(start domain.Month, values ...float64) []domain.MonthlyTotal {
	out := make([]domain.MonthlyTotal, len(values))
	for i, v := range values {
		out[i] = domain.MonthlyTotal{Month: start.Add(i), Amount: v}
	}
	return out
}

// RawRows converts transactions back into raw ledger rows.
func RawRows(txns []domain.Transaction) []domain.RawRow {
	out := make([]domain.RawRow, len(txns))
	for i, t := range txns {
		out[i] = domain.RawRow{
			Date:        t.Date.Format("2006-01-02 15:04:05"),
			Description: t.Description,
			Amount:      t.Amount.String(),
			Category:    t.Category,
		}
	}
	return out
}
