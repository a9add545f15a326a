// Package handlers provides HTTP handlers for trade execution and quotes.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/johnkiller1245/investment-trading-platform/internal/clients/yahoo"
	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/accounts"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/trading"
)

// MarketData is what the stock endpoint needs from the quote client.
type MarketData interface {
	GetQuote(symbol string) (*domain.Quote, error)
	GetHistory(symbol string) (*yahoo.History, error)
}

// Handler handles trading HTTP requests
type Handler struct {
	service *trading.Service
	market  MarketData
	log     zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(service *trading.Service, market MarketData, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		market:  market,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// tradeRequest is the POST /api/trade body.
type tradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
	Action string `json:"action"`
}

// HandleTrade executes a buy or sell at the current market price.
func (h *Handler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	account, ok := accounts.AccountFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.ExecuteTrade(account.ID, req.Symbol, req.Shares, req.Action)
	if err != nil {
		h.writeTradeError(w, err)
		return
	}

	verb := "bought"
	if res.Transaction.Side == domain.SideSell {
		verb = "sold"
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     fmt.Sprintf("Successfully %s %d shares of %s", verb, res.Transaction.Shares, res.Transaction.Symbol),
		"new_balance": res.Balance,
	})
}

// HandleGetStock returns the current quote and ~1 month of closing prices.
func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := h.market.GetQuote(symbol)
	if err != nil {
		h.writeTradeError(w, err)
		return
	}

	hist, err := h.market.GetHistory(symbol)
	if err != nil {
		// The quote resolved; serve it without history rather than failing
		// the whole request.
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
		hist = &yahoo.History{Symbol: quote.Symbol}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   quote.Symbol,
		"name":     quote.Name,
		"price":    quote.Price,
		"currency": quote.Currency,
		"as_of":    quote.AsOf,
		"history":  hist.Closes,
		"dates":    hist.Dates,
	})
}

// writeTradeError maps domain errors onto HTTP statuses. Validation
// failures are client errors; provider and storage failures are not.
func (h *Handler) writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQuoteNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQuoteUnavailable):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("Trade request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
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
