package database

// schemas maps database names to their embedded DDL. All statements are
// idempotent (IF NOT EXISTS) so Migrate can run on every startup.
var schemas = map[string]string{
	"ledger": ledgerSchema,
	"cache":  cacheSchema,
}

// ledgerSchema holds the durable trading ledger: accounts, open positions,
// and the append-only transaction log. Amounts are stored as TEXT and
// parsed into decimals by the repositories.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    balance       TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id     INTEGER NOT NULL REFERENCES accounts(id),
    symbol         TEXT NOT NULL,
    shares         INTEGER NOT NULL CHECK (shares > 0),
    purchase_price TEXT NOT NULL,
    purchase_date  INTEGER NOT NULL,
    UNIQUE (account_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    symbol     TEXT NOT NULL,
    shares     INTEGER NOT NULL CHECK (shares > 0),
    price      TEXT NOT NULL,
    side       TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
    timestamp  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(account_id, symbol);
`

// cacheSchema holds ephemeral operational data: quote cache and sessions.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS quotes (
    symbol     TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token      TEXT PRIMARY KEY,
    account_id INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quotes_expires ON quotes(expires_at);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`
