package budgets

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Store is the persistence the service needs.
type Store interface {
	List(month domain.Month) ([]Budget, error)
	EnsureDefaults(months []domain.Month, categories []string, amount decimal.Decimal) (int, error)
}

// Service compares budgets with aggregated spending.
type Service struct {
	store         Store
	defaultAmount decimal.Decimal
	log           zerolog.Logger
}

// NewService creates a budget service. defaultAmount seeds categories that
// appear in the ledger without a budget.
func NewService(store Store, defaultAmount decimal.Decimal, log zerolog.Logger) *Service {
	return &Service{
		store:         store,
		defaultAmount: defaultAmount,
		log:           log.With().Str("service", "budgets").Logger(),
	}
}

// SeedDefaults gives every (month, category) seen in expenses the default
// budget unless one exists already.
func (s *Service) SeedDefaults(expenses []domain.MonthlyAggregate) (int, error) {
	monthSet := make(map[domain.Month]bool)
	catSet := make(map[string]bool)
	for _, row := range expenses {
		monthSet[row.Month] = true
		catSet[row.Category] = true
	}
	months := make([]domain.Month, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	categories := make([]string, 0, len(catSet))
	for c := range catSet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return s.store.EnsureDefaults(months, categories, s.defaultAmount)
}

// Analyze returns one line per category with spending in the month. A
// category without a budget counts as a budget of zero.
func (s *Service) Analyze(month domain.Month, expenses []domain.MonthlyAggregate) ([]Line, error) {
	limits, err := s.limits(month)
	if err != nil {
		return nil, err
	}

	var lines []Line
	for category, spent := range spentByCategory(month, expenses) {
		limit := limits[category]
		over := spent.Sub(limit)
		if over.IsNegative() {
			over = decimal.Zero
		}
		lines = append(lines, Line{
			Category:     category,
			Budget:       limit,
			Spent:        spent,
			Over:         over,
			WithinBudget: over.IsZero(),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Category < lines[j].Category })
	return lines, nil
}

// Suggest lists categories that stayed under budget with the amount saved,
// and categories that went over with the excess. Categories without a
// budget are skipped.
func (s *Service) Suggest(month domain.Month, expenses []domain.MonthlyAggregate) (*Suggestions, error) {
	limits, err := s.limits(month)
	if err != nil {
		return nil, err
	}

	out := &Suggestions{Month: month, TotalSavings: decimal.Zero}
	for category, spent := range spentByCategory(month, expenses) {
		limit, ok := limits[category]
		if !ok {
			continue
		}
		switch {
		case spent.LessThan(limit):
			saved := limit.Sub(spent)
			out.Savings = append(out.Savings, CategoryAmount{Category: category, Amount: saved})
			out.TotalSavings = out.TotalSavings.Add(saved)
		case spent.GreaterThan(limit):
			out.Exceeded = append(out.Exceeded, CategoryAmount{Category: category, Amount: spent.Sub(limit)})
		}
	}
	sortByCategory(out.Savings)
	sortByCategory(out.Exceeded)

	s.log.Debug().
		Str("month", month.String()).
		Str("total_savings", out.TotalSavings.String()).
		Int("exceeded", len(out.Exceeded)).
		Msg("Budget suggestions computed")
	return out, nil
}

func (s *Service) limits(month domain.Month) (map[string]decimal.Decimal, error) {
	budgets, err := s.store.List(month)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		out[b.Category] = b.Amount
	}
	return out, nil
}

// spentByCategory is the magnitude of each category's signed total in month.
func spentByCategory(month domain.Month, expenses []domain.MonthlyAggregate) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, row := range expenses {
		if row.Month == month {
			out[row.Category] = out[row.Category].Add(row.Total)
		}
	}
	for c, v := range out {
		out[c] = v.Abs()
	}
	return out
}

func sortByCategory(rows []CategoryAmount) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
}
