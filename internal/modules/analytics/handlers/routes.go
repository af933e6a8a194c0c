package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Get("/latest", h.HandleLatest)
		r.Get("/trends", h.HandleTrends)
		r.Get("/compare", h.HandleCompare)
		r.Get("/summary", h.HandleSummary)
		r.Get("/anomalies", h.HandleAnomalies)
		r.Get("/forecast", h.HandleForecast)
	})
}
