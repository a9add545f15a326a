package domain

// QuoteProvider is the narrow seam to the external market-data collaborator.
// GetQuote returns ErrQuoteNotFound for unknown symbols and
// ErrQuoteUnavailable (wrapped) when the provider itself fails; re-fetching
// a quote has no side effects, so callers may retry freely.
type QuoteProvider interface {
	GetQuote(symbol string) (*Quote, error)
}
