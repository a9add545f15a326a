package portfolio

import (
	"github.com/rs/zerolog"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// LedgerReader is the read-only slice of the trading ledger the dashboard
// needs. Implemented by trading.LedgerRepository.
type LedgerReader interface {
	GetAccount(id int64) (*domain.Account, error)
	GetPositions(accountID int64) ([]domain.Position, error)
	History(accountID int64, limit int) ([]domain.Transaction, error)
}

// Service builds dashboard snapshots. It is strictly read-only: the
// dashboard route has no side effects on the ledger.
type Service struct {
	log    zerolog.Logger
	ledger LedgerReader
	quotes domain.QuoteProvider
}

// NewService creates a new portfolio service
func NewService(ledger LedgerReader, quotes domain.QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		log:    log.With().Str("service", "portfolio").Logger(),
		ledger: ledger,
		quotes: quotes,
	}
}

// GetSnapshot values an account's holdings at current market prices.
// Quote failures are per-row: a symbol the provider cannot price right now
// is flagged on its row instead of failing the whole dashboard.
func (s *Service) GetSnapshot(accountID int64) (*Snapshot, error) {
	account, err := s.ledger.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	positions, err := s.ledger.GetPositions(accountID)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]*domain.Quote, len(positions))
	for _, pos := range positions {
		quote, err := s.quotes.GetQuote(pos.Symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Quote unavailable for valuation")
			continue
		}
		quotes[pos.Symbol] = quote
	}

	snap := Valuate(account, positions, quotes)
	return &snap, nil
}

// GetTransactions returns the account's transaction history, newest first.
func (s *Service) GetTransactions(accountID int64, limit int) ([]domain.Transaction, error) {
	return s.ledger.History(accountID, limit)
}
