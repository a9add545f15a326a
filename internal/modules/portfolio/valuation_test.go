package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func quote(symbol, price string) *domain.Quote {
	return &domain.Quote{Symbol: symbol, Price: dec(price), AsOf: time.Now()}
}

func TestValuate_EmptyPortfolio(t *testing.T) {
	account := &domain.Account{ID: 1, Balance: dec("10000.00")}

	snap := Valuate(account, nil, nil)

	assert.True(t, snap.Balance.Equal(dec("10000.00")))
	assert.True(t, snap.TotalValue.Equal(dec("10000.00")))
	assert.Empty(t, snap.Positions)
	assert.NotNil(t, snap.Positions, "positions must serialize as [] not null")
}

func TestValuate_GainAndLoss(t *testing.T) {
	account := &domain.Account{ID: 1, Balance: dec("1000.00")}
	positions := []domain.Position{
		{Symbol: "AAPL", Shares: 10, PurchasePrice: dec("50.00")},
		{Symbol: "MSFT", Shares: 5, PurchasePrice: dec("100.00")},
	}
	quotes := map[string]*domain.Quote{
		"AAPL": quote("AAPL", "60.00"), // up 10 per share
		"MSFT": quote("MSFT", "90.00"), // down 10 per share
	}

	snap := Valuate(account, positions, quotes)

	require.Len(t, snap.Positions, 2)

	aapl := snap.Positions[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.True(t, aapl.Value.Equal(dec("600.00")))
	assert.True(t, aapl.GainLoss.Equal(dec("100.00")))

	msft := snap.Positions[1]
	assert.True(t, msft.Value.Equal(dec("450.00")))
	assert.True(t, msft.GainLoss.Equal(dec("-50.00")))

	// 1000 cash + 600 + 450
	assert.True(t, snap.TotalValue.Equal(dec("2050.00")), "total: %s", snap.TotalValue)
}

func TestValuate_MissingQuoteFlagsRow(t *testing.T) {
	account := &domain.Account{ID: 1, Balance: dec("500.00")}
	positions := []domain.Position{
		{Symbol: "AAPL", Shares: 2, PurchasePrice: dec("50.00")},
		{Symbol: "DLST", Shares: 3, PurchasePrice: dec("20.00")},
	}
	quotes := map[string]*domain.Quote{
		"AAPL": quote("AAPL", "55.00"),
		// DLST could not be priced.
	}

	snap := Valuate(account, positions, quotes)

	require.Len(t, snap.Positions, 2)

	flagged := snap.Positions[1]
	assert.Equal(t, "DLST", flagged.Symbol)
	assert.True(t, flagged.QuoteUnavailable)
	assert.True(t, flagged.Value.Equal(decimal.Zero))
	assert.True(t, flagged.GainLoss.Equal(decimal.Zero))

	// Unpriced rows contribute nothing to total value.
	assert.True(t, snap.TotalValue.Equal(dec("610.00")))
}

func TestValuate_NilQuoteEntryTreatedAsMissing(t *testing.T) {
	account := &domain.Account{ID: 1, Balance: dec("100.00")}
	positions := []domain.Position{
		{Symbol: "AAPL", Shares: 1, PurchasePrice: dec("50.00")},
	}
	quotes := map[string]*domain.Quote{"AAPL": nil}

	snap := Valuate(account, positions, quotes)

	require.Len(t, snap.Positions, 1)
	assert.True(t, snap.Positions[0].QuoteUnavailable)
	assert.True(t, snap.TotalValue.Equal(dec("100.00")))
}
