package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// Service handles registration and login. Credential hashing lives here,
// not on the account type: authentication is a collaborator of the ledger,
// not a property the entity mixes in.
type Service struct {
	log             zerolog.Logger
	accounts        *Repository
	sessions        *SessionRepository
	startingBalance decimal.Decimal
	sessionTTL      time.Duration
}

// NewService creates a new account service
func NewService(accounts *Repository, sessions *SessionRepository, startingBalance decimal.Decimal, sessionTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		log:             log.With().Str("service", "accounts").Logger(),
		accounts:        accounts,
		sessions:        sessions,
		startingBalance: startingBalance,
		sessionTTL:      sessionTTL,
	}
}

// Register creates a new account seeded with the configured starting balance.
func (s *Service) Register(username, email, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", domain.ErrInvalidRequest)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.accounts.Create(username, email, string(hash), s.startingBalance)
}

// Login verifies credentials and opens a new session.
func (s *Service) Login(username, password string) (*domain.Account, *domain.Session, error) {
	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.Create(uuid.NewString(), account.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Int64("account_id", account.ID).Msg("Login")
	return account, session, nil
}

// Logout revokes a session token. Revoking an unknown token is a no-op.
func (s *Service) Logout(token string) error {
	return s.sessions.Delete(token)
}

// Authenticate resolves a session token to its account.
func (s *Service) Authenticate(token string) (*domain.Account, error) {
	session, err := s.sessions.Get(token)
	if err != nil {
		return nil, err
	}
	return s.accounts.GetByID(session.AccountID)
}
