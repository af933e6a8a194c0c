// Package aggregation groups categorized transactions into monthly totals
// and derives the spending views built on top of them.
package aggregation

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// DefaultIncomeCategories are the labels treated as income when none are configured.
var DefaultIncomeCategories = []string{"Salary", "Income"}

// Aggregates holds the expense rows keyed by (month, category) and the
// income rows keyed by month alone. Both are sorted ascending.
type Aggregates struct {
	Expenses []domain.MonthlyAggregate `json:"expenses"`
	Income   []domain.MonthlyAggregate `json:"income"`
}

// Aggregator partitions a ledger into income and expenses.
type Aggregator struct {
	income  map[string]bool
	aliases map[string]string
	log     zerolog.Logger
}

// NewAggregator creates an aggregator. An empty income list falls back to
// DefaultIncomeCategories. aliases maps a category onto the one it merges into.
func NewAggregator(incomeCategories []string, aliases map[string]string, log zerolog.Logger) *Aggregator {
	if len(incomeCategories) == 0 {
		incomeCategories = DefaultIncomeCategories
	}
	income := make(map[string]bool, len(incomeCategories))
	for _, c := range incomeCategories {
		income[strings.TrimSpace(c)] = true
	}
	merged := make(map[string]string, len(aliases))
	for from, to := range aliases {
		merged[from] = to
	}
	return &Aggregator{
		income:  income,
		aliases: merged,
		log:     log.With().Str("component", "aggregator").Logger(),
	}
}

// IsIncome reports whether a category counts as income.
func (a *Aggregator) IsIncome(category string) bool {
	return a.income[category]
}

// ApplyAliases returns a copy of txns with aliased categories merged.
func (a *Aggregator) ApplyAliases(txns []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txns))
	for i, t := range txns {
		if to, ok := a.aliases[t.Category]; ok {
			t = t.WithCategory(to)
		}
		out[i] = t
	}
	return out
}

type groupKey struct {
	month    domain.Month
	category string
}

// Aggregate sums signed amounts per (month, category) for expenses and per
// month for income. Combinations with no transactions produce no row.
func (a *Aggregator) Aggregate(txns []domain.Transaction) Aggregates {
	expenses := make(map[groupKey]*domain.MonthlyAggregate)
	income := make(map[domain.Month]*domain.MonthlyAggregate)

	for _, t := range txns {
		month := t.Month()
		if a.IsIncome(t.Category) {
			row, ok := income[month]
			if !ok {
				row = &domain.MonthlyAggregate{Month: month, Total: decimal.Zero}
				income[month] = row
			}
			row.Total = row.Total.Add(t.Amount)
			row.Count++
			continue
		}

		key := groupKey{month: month, category: t.Category}
		row, ok := expenses[key]
		if !ok {
			row = &domain.MonthlyAggregate{Month: month, Category: t.Category, Total: decimal.Zero}
			expenses[key] = row
		}
		row.Total = row.Total.Add(t.Amount)
		row.Count++
	}

	out := Aggregates{
		Expenses: make([]domain.MonthlyAggregate, 0, len(expenses)),
		Income:   make([]domain.MonthlyAggregate, 0, len(income)),
	}
	for _, row := range expenses {
		out.Expenses = append(out.Expenses, *row)
	}
	for _, row := range income {
		out.Income = append(out.Income, *row)
	}
	sortAggregates(out.Expenses)
	sortAggregates(out.Income)

	a.log.Debug().
		Int("transactions", len(txns)).
		Int("expense_rows", len(out.Expenses)).
		Int("income_rows", len(out.Income)).
		Msg("Aggregated ledger")
	return out
}

// ExpenseSeries returns, per month, the magnitude of all debits outside the
// income categories. Months without debits are absent.
func (a *Aggregator) ExpenseSeries(txns []domain.Transaction) []domain.MonthlyTotal {
	totals := make(map[domain.Month]decimal.Decimal)
	for _, t := range txns {
		if !t.IsDebit() || a.IsIncome(t.Category) {
			continue
		}
		totals[t.Month()] = totals[t.Month()].Add(t.Amount.Abs())
	}
	return sortedTotals(totals)
}

// MonthlySpending collapses expense aggregates to one magnitude per month,
// the absolute value of the month's signed expense sum.
func MonthlySpending(expenses []domain.MonthlyAggregate) []domain.MonthlyTotal {
	totals := make(map[domain.Month]decimal.Decimal)
	for _, row := range expenses {
		totals[row.Month] = totals[row.Month].Add(row.Total)
	}
	for m, v := range totals {
		totals[m] = v.Abs()
	}
	return sortedTotals(totals)
}

func sortAggregates(rows []domain.MonthlyAggregate) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month.Before(rows[j].Month)
		}
		return rows[i].Category < rows[j].Category
	})
}

func sortedTotals(totals map[domain.Month]decimal.Decimal) []domain.MonthlyTotal {
	out := make([]domain.MonthlyTotal, 0, len(totals))
	for m, v := range totals {
		out = append(out, domain.MonthlyTotal{Month: m, Amount: v.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}
