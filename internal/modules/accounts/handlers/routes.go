package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all auth routes. Register/login/logout are
// public; /me is mounted behind the auth middleware by the server.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
	})
}
