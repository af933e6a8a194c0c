package analytics

import (
	"sync"

	"github.com/aristath/fintrack/internal/domain"
)

// Cache keeps the most recent successful report.
type Cache struct {
	mu     sync.RWMutex
	latest *Report
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Store replaces the cached report. Nil reports are ignored.
func (c *Cache) Store(r *Report) {
	if r == nil {
		return
	}
	c.mu.Lock()
	c.latest = r
	c.mu.Unlock()
}

// Latest returns the cached report or a MissingInputError.
func (c *Cache) Latest() (*Report, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return nil, &domain.MissingInputError{Resource: "analytics report", Hint: "run analytics first"}
	}
	return c.latest, nil
}

// LatestExpenses returns the expense aggregates of the cached report.
func (c *Cache) LatestExpenses() ([]domain.MonthlyAggregate, error) {
	r, err := c.Latest()
	if err != nil {
		return nil, err
	}
	return r.Aggregates.Expenses, nil
}
