package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// Execute decides the legality and effect of a single trade request.
//
// It is pure: no I/O, no clock reads, no mutation of its inputs. Given the
// account, the existing position for the order's symbol (nil when none), the
// quoted price and the execution time, it either returns the complete
// mutation set to persist or a domain error with no partial state.
//
// position must belong to account and match order.Symbol when non-nil.
func Execute(account *domain.Account, position *domain.Position, order Order, price decimal.Decimal, now time.Time) (*Result, error) {
	if account == nil {
		return nil, fmt.Errorf("%w: missing account", domain.ErrInvalidRequest)
	}

	order.Symbol = strings.ToUpper(strings.TrimSpace(order.Symbol))
	if order.Symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}
	if order.Shares <= 0 {
		return nil, fmt.Errorf("%w: shares must be a positive integer", domain.ErrInvalidRequest)
	}
	if !order.Side.Valid() {
		return nil, fmt.Errorf("%w: action must be buy or sell", domain.ErrInvalidRequest)
	}
	// A zero price means the provider could not resolve one; a negative
	// price is never a valid market quote.
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: no usable price for %s", domain.ErrQuoteUnavailable, order.Symbol)
	}

	shares := decimal.NewFromInt(order.Shares)
	total := price.Mul(shares)

	res := &Result{
		AccountID: account.ID,
		Transaction: domain.Transaction{
			AccountID: account.ID,
			Symbol:    order.Symbol,
			Shares:    order.Shares,
			Price:     price,
			Side:      order.Side,
			Timestamp: now,
		},
	}

	switch order.Side {
	case domain.SideBuy:
		if total.GreaterThan(account.Balance) {
			return nil, fmt.Errorf("%w: need %s, have %s", domain.ErrInsufficientFunds, total, account.Balance)
		}
		res.Balance = account.Balance.Sub(total)

		if position != nil {
			// Adding to an existing holding keeps the recorded cost basis;
			// only the share count grows.
			res.Position = *position
			res.Position.Shares += order.Shares
		} else {
			res.Position = domain.Position{
				AccountID:     account.ID,
				Symbol:        order.Symbol,
				Shares:        order.Shares,
				PurchasePrice: price,
				PurchaseDate:  now,
			}
		}

	case domain.SideSell:
		if position == nil || position.Shares < order.Shares {
			held := int64(0)
			if position != nil {
				held = position.Shares
			}
			return nil, fmt.Errorf("%w: want to sell %d, hold %d", domain.ErrInsufficientShares, order.Shares, held)
		}
		res.Balance = account.Balance.Add(total)
		res.Position = *position
		res.Position.Shares -= order.Shares
		// Selling down to exactly zero removes the position entirely.
		res.RemovePosition = res.Position.Shares == 0
	}

	return res, nil
}
