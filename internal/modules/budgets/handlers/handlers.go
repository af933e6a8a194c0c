// Package handlers provides HTTP handlers for budget management.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
	"github.com/aristath/fintrack/internal/modules/budgets"
)

// BudgetStore reads and writes budgets.
type BudgetStore interface {
	List(month domain.Month) ([]budgets.Budget, error)
	Set(month domain.Month, category string, amount decimal.Decimal) error
}

// Analyzer compares budgets with spending.
type Analyzer interface {
	Analyze(month domain.Month, expenses []domain.MonthlyAggregate) ([]budgets.Line, error)
	Suggest(month domain.Month, expenses []domain.MonthlyAggregate) (*budgets.Suggestions, error)
}

// ExpenseSource provides the expense aggregates of the latest analysis run.
type ExpenseSource interface {
	LatestExpenses() ([]domain.MonthlyAggregate, error)
}

// Handler handles budget HTTP requests
type Handler struct {
	store    BudgetStore
	analyzer Analyzer
	expenses ExpenseSource
	log      zerolog.Logger
}

// NewHandler creates a new budgets handler
func NewHandler(store BudgetStore, analyzer Analyzer, expenses ExpenseSource, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		analyzer: analyzer,
		expenses: expenses,
		log:      log.With().Str("handler", "budgets").Logger(),
	}
}

// HandleList handles GET /api/budgets/{month}
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}

	list, err := h.store.List(month)
	if err != nil {
		h.log.Error().Err(err).Str("month", month.String()).Msg("Failed to list budgets")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	if list == nil {
		list = []budgets.Budget{}
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"month":   month,
		"budgets": list,
	})
}

// HandleSet handles PUT /api/budgets/{month}/{category}
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}
	category := chi.URLParam(r, "category")

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.store.Set(month, category, req.Amount); err != nil {
		h.log.Error().Err(err).Str("month", month.String()).Str("category", category).Msg("Failed to set budget")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"month":    month,
		"category": category,
		"amount":   req.Amount,
	})
}

// HandleAnalysis handles GET /api/budgets/{month}/analysis
func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}

	expenses, err := h.expenses.LatestExpenses()
	if err != nil {
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}

	lines, err := h.analyzer.Analyze(month, expenses)
	if err != nil {
		h.log.Error().Err(err).Msg("Budget analysis failed")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	suggestions, err := h.analyzer.Suggest(month, expenses)
	if err != nil {
		h.log.Error().Err(err).Msg("Budget suggestions failed")
		h.writeError(w, domain.HTTPStatus(err), err.Error())
		return
	}
	if lines == nil {
		lines = []budgets.Line{}
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"month":       month,
		"lines":       lines,
		"suggestions": suggestions,
	})
}

func (h *Handler) monthParam(w http.ResponseWriter, r *http.Request) (domain.Month, bool) {
	month, err := domain.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return domain.Month{}, false
	}
	return month, true
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
