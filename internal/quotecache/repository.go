// Package quotecache provides persistent caching for quote provider responses.
// Quotes are stored as JSON blobs with expiration timestamps for cache-first
// behavior; stale rows are kept until cleanup so they can serve as a fallback
// when the provider is down.
package quotecache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// TTLQuote is the default freshness window for a cached quote. The market
// price cache is deliberately short-lived and explicitly bounded.
const TTLQuote = 60 * time.Second

// Repository provides cache operations for quotes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new quote cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Store saves data with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(symbol string, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)",
		symbol, string(jsonData), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store quote for %s: %w", symbol, err)
	}

	return nil
}

// GetIfFresh returns data only if expires_at > now, nil otherwise.
// Returns nil, nil if the symbol doesn't exist or the data is expired.
// Use Get() to retrieve stale data as a fallback when provider calls fail.
func (r *Repository) GetIfFresh(symbol string) (json.RawMessage, error) {
	now := time.Now().Unix()

	var data string
	err := r.db.QueryRow(
		"SELECT data FROM quotes WHERE symbol = ? AND expires_at > ?",
		symbol, now,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote for %s: %w", symbol, err)
	}

	return json.RawMessage(data), nil
}

// Get returns data regardless of expiration status.
// Use this as a fallback when provider calls fail - stale data is better
// than no data. Returns nil, nil if the symbol doesn't exist.
func (r *Repository) Get(symbol string) (json.RawMessage, error) {
	var data string
	err := r.db.QueryRow(
		"SELECT data FROM quotes WHERE symbol = ?",
		symbol,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote for %s: %w", symbol, err)
	}

	return json.RawMessage(data), nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(symbol string) error {
	_, err := r.db.Exec("DELETE FROM quotes WHERE symbol = ?", symbol)
	if err != nil {
		return fmt.Errorf("failed to delete cached quote for %s: %w", symbol, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired() (int64, error) {
	now := time.Now().Unix()

	result, err := r.db.Exec("DELETE FROM quotes WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quotes: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
