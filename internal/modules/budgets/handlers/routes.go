package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all budget routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/budgets/{month}", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/analysis", h.HandleAnalysis)
		r.Put("/{category}", h.HandleSet)
	})
}
