package aggregation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func TestTrends(t *testing.T) {
	start := domain.Month{Year: 2024, Month: 1}
	trend := Trends(testingpkg.MonthlySeries(start, 100, 200, 300, 400), 3)

	require.Len(t, trend.Points, 4)
	assert.InDelta(t, 250, trend.Average, 1e-9)
	assert.Nil(t, trend.Points[0].MovingAverage)
	assert.Nil(t, trend.Points[1].MovingAverage)
	require.NotNil(t, trend.Points[2].MovingAverage)
	assert.InDelta(t, 200, *trend.Points[2].MovingAverage, 1e-9)
	assert.InDelta(t, 300, *trend.Points[3].MovingAverage, 1e-9)
	assert.Equal(t, "2024-04", trend.Points[3].Month.String())
}

func TestTrends_ShortSeries(t *testing.T) {
	trend := Trends(testingpkg.MonthlySeries(domain.Month{Year: 2024, Month: 1}, 50, 70), 3)
	assert.InDelta(t, 60, trend.Average, 1e-9)
	for _, p := range trend.Points {
		assert.Nil(t, p.MovingAverage)
	}

	assert.Empty(t, Trends(nil, 3).Points)
}

func TestCompare(t *testing.T) {
	aggs := NewAggregator(nil, nil, zerolog.Nop()).Aggregate([]domain.Transaction{
		testingpkg.Txn("2024-01-05", "Whole Foods", "-80", "Groceries"),
		testingpkg.Txn("2024-02-05", "Whole Foods", "-90", "Groceries"),
		testingpkg.Txn("2024-02-06", "Rent", "-1000", "Housing"),
		testingpkg.Txn("2024-04-06", "Rent", "-1000", "Housing"),
	})

	cmp, err := Compare(aggs.Expenses, domain.Month{Year: 2024, Month: 1}, domain.Month{Year: 2024, Month: 3})
	require.NoError(t, err)

	require.Len(t, cmp.Months, 2)
	assert.Equal(t, []string{"Groceries", "Housing", TotalRow}, cmp.Categories)
	assert.True(t, decimal.Zero.Equal(cmp.Cells["Housing"][0]))
	assert.True(t, decimal.NewFromInt(-1000).Equal(cmp.Cells["Housing"][1]))
	assert.True(t, decimal.NewFromInt(-80).Equal(cmp.Cells[TotalRow][0]))
	assert.True(t, decimal.NewFromInt(-1090).Equal(cmp.Cells[TotalRow][1]))
}

func TestCompare_EmptyAndInvalidRange(t *testing.T) {
	cmp, err := Compare(nil, domain.Month{Year: 2024, Month: 1}, domain.Month{Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.True(t, cmp.Empty())
	assert.NotContains(t, cmp.Categories, TotalRow)

	_, err = Compare(nil, domain.Month{Year: 2024, Month: 3}, domain.Month{Year: 2024, Month: 1})
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestSummarize(t *testing.T) {
	aggs := NewAggregator(nil, nil, zerolog.Nop()).Aggregate([]domain.Transaction{
		testingpkg.Txn("2024-01-01", "Payroll", "2000", "Salary"),
		testingpkg.Txn("2024-01-05", "Rent", "-1500", "Housing"),
		testingpkg.Txn("2024-02-05", "Rent", "-1500", "Housing"),
	})

	jan := Summarize(aggs, domain.Month{Year: 2024, Month: 1})
	assert.True(t, decimal.NewFromInt(500).Equal(jan.Savings))
	assert.InDelta(t, 75, jan.PercentSpent, 1e-9)
	assert.False(t, jan.Deficit)

	feb := Summarize(aggs, domain.Month{Year: 2024, Month: 2})
	assert.True(t, feb.Deficit)
	assert.Zero(t, feb.PercentSpent)
}
