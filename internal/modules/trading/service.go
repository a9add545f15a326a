package trading

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// Service orchestrates trade execution: fetch the quote, then run the
// read-check-write sequence for the account under a per-account lock, then
// commit atomically.
//
// The quote fetch is the only blocking step and completes before the lock is
// taken; the engine itself is synchronous and deterministic. Two concurrent
// trades on the same account can therefore never both pass the funds/shares
// check against stale state.
type Service struct {
	log    zerolog.Logger
	ledger *LedgerRepository
	quotes domain.QuoteProvider

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService creates a new trading service
func NewService(ledger *LedgerRepository, quotes domain.QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		log:    log.With().Str("service", "trading").Logger(),
		ledger: ledger,
		quotes: quotes,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing trades for one account.
func (s *Service) accountLock(accountID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

// ExecuteTrade validates, prices, executes and commits a single trade for
// an account. On any error no ledger state has been mutated, except for a
// commit failure, which is surfaced to the caller and never reported as
// success.
func (s *Service) ExecuteTrade(accountID int64, symbol string, shares int64, action string) (*Result, error) {
	// Reject malformed requests before touching the provider or the ledger.
	side, err := domain.ParseSide(action)
	if err != nil {
		return nil, err
	}
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares must be a positive integer", domain.ErrInvalidRequest)
	}

	// The quote must resolve (or time out) before the engine is invoked.
	// A provider failure here leaves the ledger untouched.
	quote, err := s.quotes.GetQuote(symbol)
	if err != nil {
		return nil, err
	}

	order := Order{Symbol: quote.Symbol, Shares: shares, Side: side}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.ledger.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	position, err := s.ledger.GetPosition(accountID, order.Symbol)
	if err != nil {
		return nil, err
	}

	res, err := Execute(account, position, order, quote.Price, time.Now().UTC())
	if err != nil {
		s.log.Debug().
			Err(err).
			Int64("account_id", accountID).
			Str("symbol", order.Symbol).
			Str("action", action).
			Int64("shares", shares).
			Msg("Trade rejected")
		return nil, err
	}

	if err := s.ledger.CommitTrade(res); err != nil {
		s.log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to commit trade")
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	return res, nil
}

// History returns an account's transaction history, newest first.
func (s *Service) History(accountID int64, limit int) ([]domain.Transaction, error) {
	return s.ledger.History(accountID, limit)
}
