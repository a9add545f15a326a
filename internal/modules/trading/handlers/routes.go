package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes.
// Both endpoints require an authenticated session (middleware is applied by
// the server when mounting).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/trade", h.HandleTrade)
	r.Get("/stock/{symbol}", h.HandleGetStock)
}
