package domain

import "errors"

// Validation and collaborator failures surfaced by the trade engine and the
// account service. All are non-retryable and leave state untouched; handlers
// match them with errors.Is to pick an HTTP status.
var (
	// ErrInvalidRequest - malformed shares or action, rejected before any state is read.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrQuoteUnavailable - the provider could not price the trade, no mutation occurs.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrQuoteNotFound - the provider does not know the symbol.
	ErrQuoteNotFound = errors.New("symbol not found")

	// ErrInsufficientFunds - a buy whose total cost exceeds the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares - a sell exceeding held shares, or no position at all.
	ErrInsufficientShares = errors.New("insufficient shares")

	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
)
