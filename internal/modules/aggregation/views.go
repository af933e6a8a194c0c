package aggregation

import (
	"fmt"
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/fintrack/internal/domain"
)

// TotalRow is the label of the column-sum row in a Comparison.
const TotalRow = "Total"

// TrendPoint is one month of spending with its trailing moving average.
// MovingAverage is nil until the window has filled.
type TrendPoint struct {
	Month         domain.Month `json:"month"`
	Amount        float64      `json:"amount"`
	MovingAverage *float64     `json:"moving_average,omitempty"`
}

// Trend is a spending-over-time view.
type Trend struct {
	Points  []TrendPoint `json:"points"`
	Average float64      `json:"average"`
	Window  int          `json:"window"`
}

// Trends computes the overall average and a simple moving average over a
// monthly series. window < 1 disables the moving average.
func Trends(series []domain.MonthlyTotal, window int) Trend {
	trend := Trend{Points: make([]TrendPoint, len(series)), Window: window}
	if len(series) == 0 {
		return trend
	}

	amounts := make([]float64, len(series))
	for i, p := range series {
		amounts[i] = p.Amount
		trend.Points[i] = TrendPoint{Month: p.Month, Amount: p.Amount}
	}
	trend.Average = stat.Mean(amounts, nil)

	if window >= 1 && len(amounts) >= window {
		sma := talib.Sma(amounts, window)
		for i := window - 1; i < len(sma); i++ {
			v := sma[i]
			trend.Points[i].MovingAverage = &v
		}
	}
	return trend
}

// Comparison is a category by month pivot of expense totals, with a final
// Total row holding each month's column sum. Missing cells are zero.
type Comparison struct {
	Months     []domain.Month               `json:"months"`
	Categories []string                     `json:"categories"`
	Cells      map[string][]decimal.Decimal `json:"cells"`
}

// Compare pivots the expense aggregates falling within [from, to].
// A range with no data yields an empty comparison.
func Compare(expenses []domain.MonthlyAggregate, from, to domain.Month) (Comparison, error) {
	if to.Before(from) {
		return Comparison{}, &domain.ParseError{Field: "month range", Value: fmt.Sprintf("%s..%s", from, to), Err: fmt.Errorf("end precedes start")}
	}

	monthSet := make(map[domain.Month]bool)
	catSet := make(map[string]bool)
	for _, row := range expenses {
		if row.Month.Before(from) || to.Before(row.Month) {
			continue
		}
		monthSet[row.Month] = true
		catSet[row.Category] = true
	}

	cmp := Comparison{Cells: make(map[string][]decimal.Decimal)}
	for m := range monthSet {
		cmp.Months = append(cmp.Months, m)
	}
	sort.Slice(cmp.Months, func(i, j int) bool { return cmp.Months[i].Before(cmp.Months[j]) })
	for c := range catSet {
		cmp.Categories = append(cmp.Categories, c)
	}
	sort.Strings(cmp.Categories)

	col := make(map[domain.Month]int, len(cmp.Months))
	for i, m := range cmp.Months {
		col[m] = i
	}
	newRow := func() []decimal.Decimal {
		row := make([]decimal.Decimal, len(cmp.Months))
		for i := range row {
			row[i] = decimal.Zero
		}
		return row
	}
	for _, c := range cmp.Categories {
		cmp.Cells[c] = newRow()
	}
	total := newRow()
	for _, row := range expenses {
		i, ok := col[row.Month]
		if !ok {
			continue
		}
		cmp.Cells[row.Category][i] = cmp.Cells[row.Category][i].Add(row.Total)
		total[i] = total[i].Add(row.Total)
	}
	if len(cmp.Months) > 0 {
		cmp.Categories = append(cmp.Categories, TotalRow)
		cmp.Cells[TotalRow] = total
	}
	return cmp, nil
}

// Empty reports whether the comparison range held no data.
func (c Comparison) Empty() bool {
	return len(c.Months) == 0
}

// MonthSummary is the income versus spending overview for one month.
type MonthSummary struct {
	Month        domain.Month    `json:"month"`
	Income       decimal.Decimal `json:"income"`
	Spending     decimal.Decimal `json:"spending"`
	Savings      decimal.Decimal `json:"savings"`
	PercentSpent float64         `json:"percent_spent"`
	Deficit      bool            `json:"deficit"`
}

// Summarize reports income, spending magnitude and savings for a month.
// PercentSpent is 0 when there is no income.
func Summarize(aggs Aggregates, month domain.Month) MonthSummary {
	income := decimal.Zero
	for _, row := range aggs.Income {
		if row.Month == month {
			income = income.Add(row.Total)
		}
	}
	spent := decimal.Zero
	for _, row := range aggs.Expenses {
		if row.Month == month {
			spent = spent.Add(row.Total)
		}
	}
	spent = spent.Abs()

	s := MonthSummary{
		Month:    month,
		Income:   income,
		Spending: spent,
		Savings:  income.Sub(spent),
	}
	s.Deficit = s.Savings.IsNegative()
	if income.IsPositive() {
		s.PercentSpent = spent.Div(income).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return s
}
