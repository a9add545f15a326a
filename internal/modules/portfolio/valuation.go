// Package portfolio provides point-in-time portfolio valuation.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// PositionValuation is one dashboard row: a held position valued at the
// current market price.
type PositionValuation struct {
	Symbol        string          `json:"symbol"`
	Shares        int64           `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Value         decimal.Decimal `json:"position_value"`
	GainLoss      decimal.Decimal `json:"gain_loss"`

	// QuoteUnavailable marks rows whose symbol could not be priced. Such
	// rows are valued at zero and must not be read as a real loss.
	QuoteUnavailable bool `json:"quote_unavailable,omitempty"`
}

// Snapshot is a point-in-time view of an account's net worth.
type Snapshot struct {
	Balance    decimal.Decimal     `json:"balance"`
	Positions  []PositionValuation `json:"positions"`
	TotalValue decimal.Decimal     `json:"total_value"`
}

// Valuate computes a snapshot of net worth from the account's balance, its
// positions and the quotes gathered for them. It is pure: callers supply
// whatever quotes they managed to fetch, keyed by symbol; a missing entry
// values that row at zero and flags it rather than reporting a phantom loss.
func Valuate(account *domain.Account, positions []domain.Position, quotes map[string]*domain.Quote) Snapshot {
	snap := Snapshot{
		Balance:    account.Balance,
		Positions:  make([]PositionValuation, 0, len(positions)),
		TotalValue: account.Balance,
	}

	for _, pos := range positions {
		row := PositionValuation{
			Symbol:        pos.Symbol,
			Shares:        pos.Shares,
			PurchasePrice: pos.PurchasePrice,
		}

		shares := decimal.NewFromInt(pos.Shares)
		if quote, ok := quotes[pos.Symbol]; ok && quote != nil {
			row.CurrentPrice = quote.Price
			row.Value = quote.Price.Mul(shares)
			row.GainLoss = quote.Price.Sub(pos.PurchasePrice).Mul(shares)
		} else {
			row.CurrentPrice = decimal.Zero
			row.Value = decimal.Zero
			row.GainLoss = decimal.Zero
			row.QuoteUnavailable = true
		}

		snap.TotalValue = snap.TotalValue.Add(row.Value)
		snap.Positions = append(snap.Positions, row)
	}

	return snap
}
