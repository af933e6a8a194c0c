// Package handlers provides HTTP handlers for the analytics pipeline.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/aggregation"
	"github.com/aristath/fintrack/internal/modules/analytics"
	"github.com/aristath/fintrack/internal/modules/ledger"
)

const defaultTrendWindow = 3

// Runner executes the analytics pipeline.
type Runner interface {
	Run(ctx context.Context, rows []domain.RawRow) (*analytics.Report, error)
}

// ReportCache holds the latest successful report.
type ReportCache interface {
	Store(report *analytics.Report)
	Latest() (*analytics.Report, error)
}

// LedgerSource loads the configured ledger when a run request has no body.
type LedgerSource func() ([]domain.RawRow, error)

// Handler handles analytics HTTP requests
type Handler struct {
	runner Runner
	cache  ReportCache
	source LedgerSource
	log    zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(runner Runner, cache ReportCache, source LedgerSource, log zerolog.Logger) *Handler {
	return &Handler{
		runner: runner,
		cache:  cache,
		source: source,
		log:    log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleRun handles POST /api/analytics/run
// Accepts a text/csv ledger, a JSON {"rows": [...]} body, or nothing (configured ledger).
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	rows, err := h.readRows(r)
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	report, err := h.runner.Run(r.Context(), rows)
	if err != nil {
		h.log.Error().Err(err).Int("rows", len(rows)).Msg("Analytics run failed")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	h.cache.Store(report)

	h.writeData(w, http.StatusOK, report)
}

// HandleLatest handles GET /api/analytics/latest
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeData(w, http.StatusOK, report)
}

// HandleTrends handles GET /api/analytics/trends?window=
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	window := defaultTrendWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = parsed
	}

	report, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeData(w, http.StatusOK, aggregation.Trends(report.Spending, window))
}

// HandleCompare handles GET /api/analytics/compare?from=&to=
// Missing bounds default to the first and last month of the report.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w)
	if !ok {
		return
	}

	var from, to domain.Month
	if n := len(report.Spending); n > 0 {
		from, to = report.Spending[0].Month, report.Spending[n-1].Month
	}
	if !h.monthQuery(w, r, "from", &from) || !h.monthQuery(w, r, "to", &to) {
		return
	}

	comparison, err := aggregation.Compare(report.Aggregates.Expenses, from, to)
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	h.writeData(w, http.StatusOK, comparison)
}

// HandleSummary handles GET /api/analytics/summary?month=
// Defaults to the most recent month with spending.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w)
	if !ok {
		return
	}

	var month domain.Month
	if n := len(report.Spending); n > 0 {
		month = report.Spending[n-1].Month
	}
	if !h.monthQuery(w, r, "month", &month) {
		return
	}
	if month.IsZero() {
		h.writeError(w, http.StatusNotFound, "no spending recorded")
		return
	}

	h.writeData(w, http.StatusOK, aggregation.Summarize(report.Aggregates, month))
}

// HandleAnomalies handles GET /api/analytics/anomalies[?format=csv]
func (h *Handler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="fraud_transactions.csv"`)
		if err := analytics.WriteFlaggedCSV(w, report.Flagged); err != nil {
			h.log.Error().Err(err).Msg("Failed to write flagged transactions")
		}
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"run_id":  report.RunID,
		"count":   len(report.Flagged),
		"flagged": report.Flagged,
	})
}

// HandleForecast handles GET /api/analytics/forecast[?format=text]
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := analytics.WriteForecastTable(w, report.Forecast); err != nil {
			h.log.Error().Err(err).Msg("Failed to write forecast table")
		}
		return
	}

	h.writeData(w, http.StatusOK, report.Forecast)
}

func (h *Handler) readRows(r *http.Request) ([]domain.RawRow, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		return ledger.ReadCSV(r.Body)
	}

	var req struct {
		Rows []domain.RawRow `json:"rows"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		if h.source == nil {
			return nil, &domain.MissingInputError{Resource: "ledger", Hint: "post rows or configure LEDGER_PATH"}
		}
		return h.source()
	case err != nil:
		return nil, &domain.ParseError{Field: "body", Value: "json", Err: err}
	}
	return req.Rows, nil
}

func (h *Handler) latest(w http.ResponseWriter) (*analytics.Report, bool) {
	report, err := h.cache.Latest()
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return nil, false
	}
	return report, true
}

func (h *Handler) monthQuery(w http.ResponseWriter, r *http.Request, key string, dst *domain.Month) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return true
	}
	month, err := domain.ParseMonth(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	*dst = month
	return true
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
