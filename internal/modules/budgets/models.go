// Package budgets stores per-month category budgets and compares them with
// actual spending.
package budgets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// Budget is the spending limit for one category in one month.
type Budget struct {
	Month     domain.Month    `json:"month"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Line is one category of a month's budget analysis.
type Line struct {
	Category     string          `json:"category"`
	Budget       decimal.Decimal `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	Over         decimal.Decimal `json:"over_budget"`
	WithinBudget bool            `json:"within_budget"`
}

// CategoryAmount pairs a category with an amount.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Suggestions summarizes where a month came in under or over budget.
type Suggestions struct {
	Month        domain.Month     `json:"month"`
	Savings      []CategoryAmount `json:"savings"`
	TotalSavings decimal.Decimal  `json:"total_savings"`
	Exceeded     []CategoryAmount `json:"exceeded"`
}
