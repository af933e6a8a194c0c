package budgets

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
)

func expenseRows() []domain.MonthlyAggregate {
	return []domain.MonthlyAggregate{
		{Month: jan, Category: "Groceries", Total: decimal.NewFromInt(-350), Count: 4},
		{Month: jan, Category: "Housing", Total: decimal.NewFromInt(-1300), Count: 1},
		{Month: jan, Category: "Travel", Total: decimal.NewFromInt(-80), Count: 1},
		{Month: jan.Next(), Category: "Groceries", Total: decimal.NewFromInt(-999), Count: 3},
	}
}

func newTestService(t *testing.T) (*Service, *Repository) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Set(jan, "Groceries", decimal.NewFromInt(400)))
	require.NoError(t, repo.Set(jan, "Housing", decimal.NewFromInt(1200)))
	return NewService(repo, decimal.NewFromInt(500), zerolog.Nop()), repo
}

func TestService_Analyze(t *testing.T) {
	svc, _ := newTestService(t)

	lines, err := svc.Analyze(jan, expenseRows())
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "Groceries", lines[0].Category)
	assert.True(t, decimal.NewFromInt(350).Equal(lines[0].Spent))
	assert.True(t, lines[0].Over.IsZero())
	assert.True(t, lines[0].WithinBudget)

	assert.Equal(t, "Housing", lines[1].Category)
	assert.True(t, decimal.NewFromInt(100).Equal(lines[1].Over))
	assert.False(t, lines[1].WithinBudget)

	// no budget means a zero limit
	assert.Equal(t, "Travel", lines[2].Category)
	assert.True(t, lines[2].Budget.IsZero())
	assert.True(t, decimal.NewFromInt(80).Equal(lines[2].Over))
}

func TestService_Suggest(t *testing.T) {
	svc, _ := newTestService(t)

	s, err := svc.Suggest(jan, expenseRows())
	require.NoError(t, err)

	require.Len(t, s.Savings, 1)
	assert.Equal(t, "Groceries", s.Savings[0].Category)
	assert.True(t, decimal.NewFromInt(50).Equal(s.TotalSavings))

	require.Len(t, s.Exceeded, 1)
	assert.Equal(t, "Housing", s.Exceeded[0].Category)
	assert.True(t, decimal.NewFromInt(100).Equal(s.Exceeded[0].Amount))
}

func TestService_SeedDefaults(t *testing.T) {
	svc, repo := newTestService(t)

	inserted, err := svc.SeedDefaults(expenseRows())
	require.NoError(t, err)
	// 2 months x 3 categories, minus the 2 budgets already set
	assert.Equal(t, 4, inserted)

	travel, err := repo.Get(jan, "Travel")
	require.NoError(t, err)
	require.NotNil(t, travel)
	assert.True(t, decimal.NewFromInt(500).Equal(travel.Amount))
}
