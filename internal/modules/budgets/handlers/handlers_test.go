package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/budgets"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

type staticExpenses struct {
	rows []domain.MonthlyAggregate
	err  error
}

func (s staticExpenses) LatestExpenses() ([]domain.MonthlyAggregate, error) {
	return s.rows, s.err
}

func newTestRouter(t *testing.T, expenses ExpenseSource) chi.Router {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "fintrack")
	t.Cleanup(cleanup)

	repo := budgets.NewRepository(db.Conn(), zerolog.Nop())
	svc := budgets.NewService(repo, decimal.NewFromInt(500), zerolog.Nop())
	h := NewHandler(repo, svc, expenses, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)
	return router
}

func do(router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBudgets_SetThenList(t *testing.T) {
	router := newTestRouter(t, staticExpenses{})

	rec := do(router, "PUT", "/api/budgets/2024-01/Groceries", `{"amount":"420.50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, "GET", "/api/budgets/2024-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Budgets []budgets.Budget `json:"budgets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Data.Budgets, 1)
	assert.Equal(t, "Groceries", response.Data.Budgets[0].Category)
	assert.True(t, decimal.RequireFromString("420.5").Equal(response.Data.Budgets[0].Amount))
}

func TestBudgets_Validation(t *testing.T) {
	router := newTestRouter(t, staticExpenses{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"bad month", "GET", "/api/budgets/2024-13", ""},
		{"negative amount", "PUT", "/api/budgets/2024-01/Groceries", `{"amount":"-5"}`},
		{"malformed body", "PUT", "/api/budgets/2024-01/Groceries", `{"amount":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(router, tt.method, tt.path, tt.body).Code)
		})
	}
}

func TestBudgets_Analysis(t *testing.T) {
	jan := domain.Month{Year: 2024, Month: 1}
	router := newTestRouter(t, staticExpenses{rows: []domain.MonthlyAggregate{
		{Month: jan, Category: "Groceries", Total: decimal.NewFromInt(-450)},
	}})

	require.Equal(t, http.StatusOK, do(router, "PUT", "/api/budgets/2024-01/Groceries", `{"amount":"400"}`).Code)

	rec := do(router, "GET", "/api/budgets/2024-01/analysis", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		Data struct {
			Lines       []budgets.Line      `json:"lines"`
			Suggestions budgets.Suggestions `json:"suggestions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Data.Lines, 1)
	assert.True(t, decimal.NewFromInt(50).Equal(response.Data.Lines[0].Over))
	require.Len(t, response.Data.Suggestions.Exceeded, 1)
}

func TestBudgets_AnalysisWithoutRun(t *testing.T) {
	router := newTestRouter(t, staticExpenses{err: &domain.MissingInputError{Resource: "analytics report", Hint: "run analytics first"}})

	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/api/budgets/2024-01/analysis", "").Code)
}
