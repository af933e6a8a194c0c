package forecasting

import (
	"fmt"
	"sort"

	"github.com/aristath/fintrack/internal/domain"
)

// LagRow pairs a month's total with the totals of the months before it.
// Lags[0] is the previous month, Lags[k-1] is k months back.
type LagRow struct {
	Month  domain.Month `json:"month"`
	Lags   []float64    `json:"lags"`
	Target float64      `json:"target"`
}

// BuildLagTable emits one row per month whose full lag window is present in
// series. Rows are ordered by month. A row depends only on its own month and
// the lag months before it, never on the rest of the series.
func BuildLagTable(series []domain.MonthlyTotal, lag int) ([]LagRow, error) {
	if lag < 1 {
		return nil, fmt.Errorf("lag order must be at least 1, got %d", lag)
	}
	byIndex, err := indexSeries(series)
	if err != nil {
		return nil, err
	}

	sorted := sortedSeries(series)
	var rows []LagRow
	for _, p := range sorted {
		lags := make([]float64, lag)
		complete := true
		for k := 1; k <= lag; k++ {
			v, ok := byIndex[p.Month.Index()-k]
			if !ok {
				complete = false
				break
			}
			lags[k-1] = v
		}
		if complete {
			rows = append(rows, LagRow{Month: p.Month, Lags: lags, Target: p.Amount})
		}
	}
	return rows, nil
}

// ContiguousTail returns the longest run of consecutive months ending at the
// latest month in series.
func ContiguousTail(series []domain.MonthlyTotal) []domain.MonthlyTotal {
	sorted := sortedSeries(series)
	if len(sorted) == 0 {
		return nil
	}
	start := len(sorted) - 1
	for start > 0 && sorted[start-1].Month.Index() == sorted[start].Month.Index()-1 {
		start--
	}
	return sorted[start:]
}

func indexSeries(series []domain.MonthlyTotal) (map[int]float64, error) {
	out := make(map[int]float64, len(series))
	for _, p := range series {
		if _, dup := out[p.Month.Index()]; dup {
			return nil, &domain.ParseError{Field: "expense series", Value: p.Month.String(), Err: fmt.Errorf("duplicate month")}
		}
		out[p.Month.Index()] = p.Amount
	}
	return out, nil
}

func sortedSeries(series []domain.MonthlyTotal) []domain.MonthlyTotal {
	out := append([]domain.MonthlyTotal(nil), series...)
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}
