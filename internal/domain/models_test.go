package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TransactionTypeDebit, TypeOf(decimal.RequireFromString("-0.01")))
	assert.Equal(t, TransactionTypeCredit, TypeOf(decimal.Zero))
	assert.Equal(t, TransactionTypeCredit, TypeOf(decimal.NewFromInt(2500)))
}

func TestTransaction_Helpers(t *testing.T) {
	txn := Transaction{
		Date:   time.Date(2024, 3, 15, 23, 10, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("-42.50"),
		Type:   TransactionTypeDebit,
	}

	assert.True(t, txn.IsDebit())
	assert.False(t, txn.IsCredit())
	assert.InDelta(t, 42.5, txn.AbsAmount(), 1e-9)
	assert.Equal(t, Month{Year: 2024, Month: time.March}, txn.Month())

	labelled := txn.WithCategory("Groceries")
	assert.Equal(t, "Groceries", labelled.Category)
	assert.Empty(t, txn.Category, "original must not be mutated")
}

func TestMonth_Arithmetic(t *testing.T) {
	dec := Month{Year: 2023, Month: time.December}

	assert.Equal(t, Month{Year: 2024, Month: time.January}, dec.Next())
	assert.Equal(t, Month{Year: 2023, Month: time.October}, dec.Add(-2))
	assert.Equal(t, 1, dec.Next().Index()-dec.Index())
	assert.True(t, dec.Before(dec.Next()))
	assert.False(t, dec.Before(dec))
	assert.Equal(t, "2023-12", dec.String())
	assert.True(t, Month{}.IsZero())
}

func TestMonth_JSONRoundTrip(t *testing.T) {
	agg := MonthlyAggregate{Month: Month{Year: 2024, Month: time.May}, Category: "Travel", Total: decimal.NewFromInt(-120)}

	data, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"month":"2024-05"`)

	var decoded MonthlyAggregate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, agg.Month, decoded.Month)
	assert.True(t, agg.Total.Equal(decoded.Total))
}

func TestParseMonth_Invalid(t *testing.T) {
	_, err := ParseMonth("2024/05")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"missing input", &MissingInputError{Resource: "transactions.csv"}, ErrMissingInput, "transactions.csv"},
		{"parse", &ParseError{Row: 3, Field: "date", Value: "yesterday"}, ErrParse, "row 3"},
		{"insufficient data", &InsufficientDataError{What: "standardization", Have: 1, Need: 2}, ErrInsufficientData, "need at least 2"},
		{"insufficient history", &InsufficientHistoryError{Have: 2, Need: 4}, ErrInsufficientHistory, "need at least 4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("stage failed: %w", tc.err)
			assert.True(t, errors.Is(wrapped, tc.sentinel))
			assert.Contains(t, wrapped.Error(), tc.contains)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"parse", &ParseError{Field: "amount"}, http.StatusBadRequest},
		{"missing", fmt.Errorf("load: %w", &MissingInputError{Resource: "x"}), http.StatusNotFound},
		{"insufficient data", &InsufficientDataError{What: "scaler"}, http.StatusUnprocessableEntity},
		{"insufficient history", &InsufficientHistoryError{Have: 2, Need: 4}, http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
