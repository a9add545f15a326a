package accounts

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// testSchema holds the accounts table (ledger.db) and the sessions table
// (cache.db) side by side; tests do not care that production splits them.
const testSchema = `
CREATE TABLE accounts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    balance       TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE sessions (
    token      TEXT PRIMARY KEY,
    account_id INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) (*Service, *sql.DB) {
	db := setupTestDB(t)
	accountRepo := NewRepository(db, zerolog.Nop())
	sessionRepo := NewSessionRepository(db, zerolog.Nop())
	svc := NewService(accountRepo, sessionRepo, decimal.RequireFromString("10000.00"), time.Hour, zerolog.Nop())
	return svc, db
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.Register("alice", "Alice@Example.com", "correct horse")
	require.NoError(t, err)

	assert.NotZero(t, acc.ID)
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, "alice@example.com", acc.Email, "email is normalized to lowercase")
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("10000.00")))
	assert.NotEqual(t, "correct horse", acc.PasswordHash, "password must be stored hashed")
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("", "a@example.com", "long enough password")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Register("alice", "", "long enough password")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Register("alice", "a@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register("alice", "other@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register("bob", "alice@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	account, session, err := svc.Login("alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, account.ID, session.AccountID)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Login("alice", "wrong horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	// Same error as a wrong password so the response does not leak
	// which usernames exist.
	_, _, err := svc.Login("nobody", "whatever pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, session, err := svc.Login("alice", "correct horse")
	require.NoError(t, err)

	account, err := svc.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, account.ID)
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate("not-a-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	svc, db := newTestService(t)

	registered, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute).Unix()
	_, err = db.Exec(
		"INSERT INTO sessions (token, account_id, expires_at) VALUES (?, ?, ?)",
		"stale-token", registered.ID, expired,
	)
	require.NoError(t, err)

	_, err = svc.Authenticate("stale-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, session, err := svc.Login("alice", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(session.Token))

	_, err = svc.Authenticate(session.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Revoking again is a no-op.
	assert.NoError(t, svc.Logout(session.Token))
}

func TestDeleteExpiredSessions(t *testing.T) {
	svc, db := newTestService(t)

	registered, err := svc.Register("alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, live, err := svc.Login("alice", "correct horse")
	require.NoError(t, err)

	_, err = db.Exec(
		"INSERT INTO sessions (token, account_id, expires_at) VALUES (?, ?, ?)",
		"stale-token", registered.ID, time.Now().Add(-time.Hour).Unix(),
	)
	require.NoError(t, err)

	deleted, err := svc.sessions.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.Authenticate(live.Token)
	assert.NoError(t, err, "live sessions survive cleanup")
}
