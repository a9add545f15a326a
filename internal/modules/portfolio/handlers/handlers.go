// Package handlers provides HTTP handlers for the portfolio dashboard.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/accounts"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio returns the dashboard snapshot: cash balance, valued
// positions and total net worth. Read-only.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	account, ok := accounts.AccountFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	snap, err := h.service.GetSnapshot(account.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", account.ID).Msg("Failed to build snapshot")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

// HandleGetTransactions returns the account's transaction history.
// An optional ?limit=N caps the number of rows.
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	account, ok := accounts.AccountFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	txs, err := h.service.GetTransactions(account.ID, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", account.ID).Msg("Failed to load transactions")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
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
	h.writeJSON(w, status, map[string]string{"error": message})
}
