// Package domain provides the core ledger types shared by every analytics stage.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is the sentinel category for rows the classifier cannot resolve.
const UncategorizedLabel = "Uncategorized"

// TransactionType distinguishes money leaving the account from money arriving.
type TransactionType string

const (
	// TransactionTypeDebit is an expense (negative amount)
	TransactionTypeDebit TransactionType = "Debit"
	// TransactionTypeCredit is income or a refund (zero or positive amount)
	TransactionTypeCredit TransactionType = "Credit"
)

// TypeOf derives the transaction type from a signed amount.
func TypeOf(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// RawRow is one ledger record as produced by a statement importer.
type RawRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"` // pre-assigned label, if any
}

// Transaction is a normalized ledger entry. Later stages return enriched copies.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Hour        int             `json:"transaction_hour"`
	Type        TransactionType `json:"transaction_type"`
	FraudFlag   bool            `json:"fraud_flag"`
}

// IsDebit reports whether the transaction is an expense.
func (t Transaction) IsDebit() bool {
	return t.Type == TransactionTypeDebit
}

// IsCredit reports whether the amount is strictly positive.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// AbsAmount returns |amount| as float64 for numeric models.
func (t Transaction) AbsAmount() float64 {
	return t.Amount.Abs().InexactFloat64()
}

// Month returns the calendar month the transaction belongs to.
func (t Transaction) Month() Month {
	return MonthOf(t.Date)
}

// WithCategory returns a copy of the transaction carrying the given label.
func (t Transaction) WithCategory(category string) Transaction {
	t.Category = category
	return t
}

// MonthlyAggregate is the signed total of one (month, category) group.
// Category is empty for income aggregates, which are grouped by month only.
type MonthlyAggregate struct {
	Month    Month           `json:"month"`
	Category string          `json:"category,omitempty"`
	Total    decimal.Decimal `json:"total_amount"`
	Count    int             `json:"count"`
}

// MonthlyTotal is one point of a monthly series (e.g. total expenses per month).
type MonthlyTotal struct {
	Month  Month   `json:"month"`
	Amount float64 `json:"amount"`
}
