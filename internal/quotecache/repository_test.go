package quotecache

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE quotes (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);
CREATE INDEX idx_quotes_expires ON quotes(expires_at);
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

func TestStore(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	quote := map[string]interface{}{"symbol": "AAPL", "price": "187.23"}
	require.NoError(t, repo.Store("AAPL", quote, time.Minute))

	data, err := repo.GetIfFresh("AAPL")
	require.NoError(t, err)
	require.NotNil(t, data)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "187.23", parsed["price"])
}

func TestStore_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Store("AAPL", map[string]string{"price": "100"}, time.Minute))
	require.NoError(t, repo.Store("AAPL", map[string]string{"price": "101"}, time.Minute))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM quotes").Scan(&count))
	assert.Equal(t, 1, count)

	data, err := repo.GetIfFresh("AAPL")
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "101", parsed["price"])
}

func TestGetIfFresh_Miss(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	data, err := repo.GetIfFresh("AAPL")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGetIfFresh_Expired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	expired := time.Now().Add(-time.Hour).Unix()
	_, err := db.Exec(
		"INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)",
		"AAPL", `{"price":"100"}`, expired,
	)
	require.NoError(t, err)

	data, err := repo.GetIfFresh("AAPL")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGet_ReturnsStaleData(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	expired := time.Now().Add(-time.Hour).Unix()
	_, err := db.Exec(
		"INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)",
		"AAPL", `{"price":"100"}`, expired,
	)
	require.NoError(t, err)

	// Stale rows still serve as a provider-outage fallback.
	data, err := repo.Get("AAPL")
	require.NoError(t, err)
	require.NotNil(t, data)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "100", parsed["price"])
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("AAPL", map[string]string{"price": "100"}, time.Minute))
	require.NoError(t, repo.Delete("AAPL"))

	data, err := repo.Get("AAPL")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Store("FRESH", map[string]string{"price": "1"}, time.Hour))

	expired := time.Now().Add(-time.Hour).Unix()
	for _, sym := range []string{"OLD1", "OLD2"} {
		_, err := db.Exec(
			"INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)",
			sym, `{}`, expired,
		)
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	data, err := repo.GetIfFresh("FRESH")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestCleanupJob(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	expired := time.Now().Add(-time.Hour).Unix()
	_, err := db.Exec(
		"INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)",
		"OLD", `{}`, expired,
	)
	require.NoError(t, err)

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "quote_cache_cleanup", job.Name())
	require.NoError(t, job.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM quotes").Scan(&count))
	assert.Equal(t, 0, count)
}
