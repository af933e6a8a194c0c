package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all classifier routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/classifier", func(r chi.Router) {
		r.Get("/", h.HandleGetInfo)
		r.Post("/train", h.HandleTrain)
		r.Post("/classify", h.HandleClassify)
	})
}
