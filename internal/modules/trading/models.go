package trading

import (
	"github.com/shopspring/decimal"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// Order is a validated trade request: a symbol, a positive share count and
// a side from the closed buy/sell set.
type Order struct {
	Symbol string
	Shares int64
	Side   domain.Side
}

// Result is the mutation set produced by a successful trade decision.
// Nothing has been persisted yet when a Result is returned; the ledger
// repository applies the whole set atomically in CommitTrade.
type Result struct {
	AccountID int64

	// Balance is the account's cash balance after the trade.
	Balance decimal.Decimal

	// Position is the post-trade position state. On a sell that clears the
	// holding its Shares is zero and RemovePosition is set; the row is then
	// deleted instead of updated.
	Position       domain.Position
	RemovePosition bool

	// Transaction is the immutable audit record to append.
	Transaction domain.Transaction
}
