// Package accounts provides account registration, authentication and
// session management.
package accounts

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// Repository handles account identity rows in ledger.db. The cash balance
// column is written here only at creation time; afterwards it is mutated
// exclusively by the trading ledger.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// Create inserts a new account with the given starting balance.
// Username and email uniqueness violations map to their domain errors.
func (r *Repository) Create(username, email, passwordHash string, startingBalance decimal.Decimal) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		INSERT INTO accounts (username, email, password_hash, balance, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, startingBalance.String(), now.Unix(),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "accounts.username"):
			return nil, domain.ErrUsernameTaken
		case strings.Contains(msg, "accounts.email"):
			return nil, domain.ErrEmailTaken
		default:
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get new account id: %w", err)
	}

	r.log.Info().Int64("account_id", id).Str("username", username).Msg("Account created")

	return &domain.Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      startingBalance,
		CreatedAt:    now,
	}, nil
}

// GetByID returns an account by id.
func (r *Repository) GetByID(id int64) (*domain.Account, error) {
	return r.getBy("id = ?", id)
}

// GetByUsername returns an account by username.
func (r *Repository) GetByUsername(username string) (*domain.Account, error) {
	return r.getBy("username = ?", strings.TrimSpace(username))
}

func (r *Repository) getBy(where string, arg interface{}) (*domain.Account, error) {
	query := `SELECT id, username, email, password_hash, balance, created_at
		FROM accounts WHERE ` + where

	var acc domain.Account
	var balance string
	var createdAt int64
	err := r.db.QueryRow(query, arg).Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &balance, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	acc.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for account %d: %w", acc.ID, err)
	}
	acc.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &acc, nil
}
