package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/aggregation"
	"github.com/aristath/fintrack/internal/modules/analytics"
	"github.com/aristath/fintrack/internal/modules/forecasting"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

type fakeRunner struct {
	rows []domain.RawRow
	err  error
}

func (f *fakeRunner) Run(_ context.Context, rows []domain.RawRow) (*analytics.Report, error) {
	f.rows = rows
	if f.err != nil {
		return nil, f.err
	}
	return sampleReport(), nil
}

func sampleReport() *analytics.Report {
	jan := domain.Month{Year: 2024, Month: 1}
	feb := jan.Next()
	return &analytics.Report{
		RunID: "run-1",
		Aggregates: aggregation.Aggregates{
			Expenses: []domain.MonthlyAggregate{
				{Month: jan, Category: "Groceries", Total: decimal.NewFromInt(-300), Count: 2},
				{Month: feb, Category: "Groceries", Total: decimal.NewFromInt(-200), Count: 1},
				{Month: feb, Category: "Housing", Total: decimal.NewFromInt(-1000), Count: 1},
			},
			Income: []domain.MonthlyAggregate{
				{Month: feb, Total: decimal.NewFromInt(3000), Count: 1},
			},
		},
		Spending: testingpkg.MonthlySeries(jan, 300, 1200),
		Forecast: &forecasting.Report{
			Table: []forecasting.TableRow{{Month: feb, Amount: 1200}, {Month: feb.Next(), Amount: 900, Forecast: true}},
		},
	}
}

func setup(runner Runner, source LedgerSource) (*chi.Mux, *analytics.Cache) {
	cache := analytics.NewCache()
	h := NewHandler(runner, cache, source, zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)
	return router, cache
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response must carry a data envelope: %s", rec.Body.String())
	return data
}

func TestHandleRun_CSVBody(t *testing.T) {
	runner := &fakeRunner{}
	router, cache := setup(runner, nil)

	body := "Date,Description,Amount\n2024-01-05,Coffee,-4.50\n"
	req := httptest.NewRequest("POST", "/api/analytics/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, runner.rows, 1)
	assert.Equal(t, "Coffee", runner.rows[0].Description)

	latest, err := cache.Latest()
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.RunID)
}

func TestHandleRun_JSONBody(t *testing.T) {
	runner := &fakeRunner{}
	router, _ := setup(runner, nil)

	body := `{"rows":[{"date":"2024-01-05","description":"Coffee","amount":"-4.50"}]}`
	req := httptest.NewRequest("POST", "/api/analytics/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, runner.rows, 1)
	assert.Equal(t, "-4.50", runner.rows[0].Amount)
}

func TestHandleRun_EmptyBodyUsesConfiguredLedger(t *testing.T) {
	runner := &fakeRunner{}
	source := func() ([]domain.RawRow, error) {
		return []domain.RawRow{{Date: "2024-01-01", Description: "Rent", Amount: "-1000"}}, nil
	}
	router, _ := setup(runner, source)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analytics/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, runner.rows, 1)
	assert.Equal(t, "Rent", runner.rows[0].Description)
}

func TestHandleRun_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"parse", &domain.ParseError{Row: 2, Field: "date", Value: "x"}, http.StatusBadRequest},
		{"history", &domain.InsufficientHistoryError{Have: 2, Need: 4}, http.StatusUnprocessableEntity},
		{"missing", &domain.MissingInputError{Resource: "classifier", Hint: "train first"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, cache := setup(&fakeRunner{err: tt.err}, nil)

			req := httptest.NewRequest("POST", "/api/analytics/run", strings.NewReader(`{"rows":[]}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			_, err := cache.Latest()
			assert.Error(t, err, "failed runs must not replace the cached report")
		})
	}
}

func TestHandleRun_NoBodyNoSource(t *testing.T) {
	router, _ := setup(&fakeRunner{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analytics/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadEndpoints_BeforeAnyRun(t *testing.T) {
	router, _ := setup(&fakeRunner{}, nil)
	for _, path := range []string{"/latest", "/trends", "/compare", "/summary", "/anomalies", "/forecast"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics"+path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestHandleTrends(t *testing.T) {
	router, cache := setup(&fakeRunner{}, nil)
	cache.Store(sampleReport())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/trends?window=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.InDelta(t, 750.0, data["average"], 1e-9)
	points := data["points"].([]interface{})
	require.Len(t, points, 2)
	assert.NotContains(t, points[0].(map[string]interface{}), "moving_average")
	assert.InDelta(t, 750.0, points[1].(map[string]interface{})["moving_average"], 1e-9)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/trends?window=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCompare(t *testing.T) {
	router, cache := setup(&fakeRunner{}, nil)
	cache.Store(sampleReport())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/compare", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, []interface{}{"2024-01", "2024-02"}, data["months"])
	cells := data["cells"].(map[string]interface{})
	assert.Equal(t, []interface{}{"0", "-1000"}, cells["Housing"])
	assert.Equal(t, []interface{}{"-300", "-1200"}, cells[aggregation.TotalRow])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/compare?from=2024-03&to=2024-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/compare?from=bad", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	router, cache := setup(&fakeRunner{}, nil)
	cache.Store(sampleReport())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "2024-02", data["month"])
	assert.Equal(t, "1800", data["savings"])
	assert.InDelta(t, 40.0, data["percent_spent"], 1e-9)
}

func TestHandleAnomalies_CSV(t *testing.T) {
	router, cache := setup(&fakeRunner{}, nil)
	cache.Store(sampleReport())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/anomalies?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Date,Description,Amount"))
}

func TestHandleForecast_Text(t *testing.T) {
	router, cache := setup(&fakeRunner{}, nil)
	cache.Store(sampleReport())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analytics/forecast?format=text", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-03")
	assert.Contains(t, rec.Body.String(), "forecast")
}
