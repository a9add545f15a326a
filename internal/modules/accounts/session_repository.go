package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// SessionRepository stores login sessions in cache.db. Sessions are
// ephemeral by design: losing them only forces a re-login.
type SessionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, log zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log.With().Str("repo", "sessions").Logger(),
	}
}

// Create stores a new session token for an account.
func (r *SessionRepository) Create(token string, accountID int64, ttl time.Duration) (*domain.Session, error) {
	expiresAt := time.Now().Add(ttl).UTC()

	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO sessions (token, account_id, expires_at) VALUES (?, ?, ?)",
		token, accountID, expiresAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &domain.Session{Token: token, AccountID: accountID, ExpiresAt: expiresAt}, nil
}

// Get returns the session for a token if it has not expired.
func (r *SessionRepository) Get(token string) (*domain.Session, error) {
	now := time.Now().Unix()

	var sess domain.Session
	var expiresAt int64
	err := r.db.QueryRow(
		"SELECT token, account_id, expires_at FROM sessions WHERE token = ? AND expires_at > ?",
		token, now,
	).Scan(&sess.Token, &sess.AccountID, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	sess.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &sess, nil
}

// Delete revokes a session token.
func (r *SessionRepository) Delete(token string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions past their expiry.
// Returns the number of rows deleted.
func (r *SessionRepository) DeleteExpired() (int64, error) {
	now := time.Now().Unix()

	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
