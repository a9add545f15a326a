package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/accounts"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/portfolio"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/trading"
)

const testSchema = `
CREATE TABLE accounts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    balance       TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE positions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id     INTEGER NOT NULL,
    symbol         TEXT NOT NULL,
    shares         INTEGER NOT NULL CHECK (shares > 0),
    purchase_price TEXT NOT NULL,
    purchase_date  INTEGER NOT NULL,
    UNIQUE (account_id, symbol)
);

CREATE TABLE transactions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    symbol     TEXT NOT NULL,
    shares     INTEGER NOT NULL CHECK (shares > 0),
    price      TEXT NOT NULL,
    side       TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
    timestamp  INTEGER NOT NULL
);

CREATE TABLE sessions (
    token      TEXT PRIMARY KEY,
    account_id INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
`

type mapQuotes struct {
	prices map[string]decimal.Decimal
}

func (m *mapQuotes) GetQuote(symbol string) (*domain.Quote, error) {
	price, ok := m.prices[symbol]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	return &domain.Quote{Symbol: symbol, Price: price, AsOf: time.Now()}, nil
}

// testStack builds a router over an in-memory database, seeds the account
// via the real registration path and returns its session cookie plus the
// ledger repository for seeding trades.
func testStack(t *testing.T, quotes *mapQuotes) (chi.Router, *http.Cookie, *trading.LedgerRepository, int64) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	nop := zerolog.Nop()
	accountSvc := accounts.NewService(
		accounts.NewRepository(db, nop),
		accounts.NewSessionRepository(db, nop),
		decimal.RequireFromString("10000.00"),
		time.Hour,
		nop,
	)
	ledger := trading.NewLedgerRepository(db, nop)
	handler := NewHandler(portfolio.NewService(ledger, quotes, nop), nop)

	account, err := accountSvc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)
	_, session, err := accountSvc.Login("alice", "correct horse")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(accountSvc.RequireAuth)
		handler.RegisterRoutes(r)
	})

	return r, &http.Cookie{Name: accounts.SessionCookie, Value: session.Token}, ledger, account.ID
}

func get(r chi.Router, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seedTrade(t *testing.T, ledger *trading.LedgerRepository, accountID int64, symbol, price string, shares int64, balance string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, ledger.CommitTrade(&trading.Result{
		AccountID: accountID,
		Balance:   decimal.RequireFromString(balance),
		Position: domain.Position{
			AccountID:     accountID,
			Symbol:        symbol,
			Shares:        shares,
			PurchasePrice: decimal.RequireFromString(price),
			PurchaseDate:  now,
		},
		Transaction: domain.Transaction{
			AccountID: accountID,
			Symbol:    symbol,
			Shares:    shares,
			Price:     decimal.RequireFromString(price),
			Side:      domain.SideBuy,
			Timestamp: now,
		},
	}))
}

func TestHandleGetPortfolio(t *testing.T) {
	quotes := &mapQuotes{prices: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("60.00")}}
	r, cookie, ledger, accountID := testStack(t, quotes)

	seedTrade(t, ledger, accountID, "AAPL", "50.00", 10, "9500.00")

	rec := get(r, "/portfolio", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap struct {
		Balance    decimal.Decimal `json:"balance"`
		TotalValue decimal.Decimal `json:"total_value"`
		Positions  []struct {
			Symbol   string          `json:"symbol"`
			Shares   int64           `json:"shares"`
			GainLoss decimal.Decimal `json:"gain_loss"`
		} `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	assert.True(t, snap.Balance.Equal(decimal.RequireFromString("9500.00")))
	// 9500 cash + 10 shares at 60
	assert.True(t, snap.TotalValue.Equal(decimal.RequireFromString("10100.00")), "total: %s", snap.TotalValue)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, "AAPL", snap.Positions[0].Symbol)
	assert.True(t, snap.Positions[0].GainLoss.Equal(decimal.RequireFromString("100.00")))
}

func TestHandleGetPortfolio_EmptyAccount(t *testing.T) {
	r, cookie, _, _ := testStack(t, &mapQuotes{})

	rec := get(r, "/portfolio", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), `"positions":[]`)
}

func TestHandleGetPortfolio_Unauthenticated(t *testing.T) {
	r, _, _, _ := testStack(t, &mapQuotes{})

	rec := get(r, "/portfolio", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleGetTransactions(t *testing.T) {
	quotes := &mapQuotes{prices: map[string]decimal.Decimal{}}
	r, cookie, ledger, accountID := testStack(t, quotes)

	seedTrade(t, ledger, accountID, "AAPL", "50.00", 10, "9500.00")

	rec := get(r, "/portfolio/transactions", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "AAPL", resp.Transactions[0].Symbol)
}

func TestHandleGetTransactions_EmptyIsArray(t *testing.T) {
	r, cookie, _, _ := testStack(t, &mapQuotes{})

	rec := get(r, "/portfolio/transactions", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transactions":[]`)
}

func TestHandleGetTransactions_InvalidLimit(t *testing.T) {
	r, cookie, _, _ := testStack(t, &mapQuotes{})

	rec := get(r, "/portfolio/transactions?limit=abc", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(r, "/portfolio/transactions?limit=-1", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
