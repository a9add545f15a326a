// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of a trade. It is a closed set: every
// inbound action string must pass through ParseSide before it reaches the
// trade engine.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide converts an action string into a Side.
// Anything other than exactly "buy" or "sell" is an invalid request.
func ParseSide(action string) (Side, error) {
	switch action {
	case string(SideBuy):
		return SideBuy, nil
	case string(SideSell):
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, action)
	}
}

// Valid reports whether the side is one of the closed set members.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Account represents a registered user and their cash balance.
// The credential hash is an owned field on the account row; authentication
// is a collaborator, not a base type the account inherits from.
type Account struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Position represents a held quantity of a symbol's shares plus its cost
// basis. Unique per (account, symbol); shares stays positive while the row
// exists, a sell down to zero deletes it.
type Position struct {
	ID            int64           `json:"id"`
	AccountID     int64           `json:"account_id"`
	Symbol        string          `json:"symbol"`
	Shares        int64           `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
}

// Transaction is an immutable append-only ledger entry. Never mutated or
// deleted after creation - it is the audit trail.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Side      Side            `json:"side"`
	Timestamp time.Time       `json:"timestamp"`
}

// Quote is an externally supplied current market price for a symbol.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	AsOf     time.Time       `json:"as_of"`
}

// Session represents an authenticated login session.
type Session struct {
	Token     string    `json:"token"`
	AccountID int64     `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
