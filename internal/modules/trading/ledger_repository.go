package trading

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/johnkiller1245/investment-trading-platform/internal/database"
	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// LedgerRepository handles the durable trading ledger: account balances,
// positions and the append-only transaction log. All three live in ledger.db
// so a trade can be committed as a single SQLite transaction.
type LedgerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB, log zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// GetAccount returns an account by id, including its current cash balance.
func (r *LedgerRepository) GetAccount(id int64) (*domain.Account, error) {
	query := `SELECT id, username, email, password_hash, balance, created_at
		FROM accounts WHERE id = ?`

	var acc domain.Account
	var balance string
	var createdAt int64
	err := r.db.QueryRow(query, id).Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &balance, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	acc.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for account %d: %w", id, err)
	}
	acc.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &acc, nil
}

// GetPosition returns the position for (accountID, symbol), or nil when the
// account holds no shares of the symbol.
func (r *LedgerRepository) GetPosition(accountID int64, symbol string) (*domain.Position, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	query := `SELECT id, account_id, symbol, shares, purchase_price, purchase_date
		FROM positions WHERE account_id = ? AND symbol = ?`

	rows, err := r.db.Query(query, accountID, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query position: %w", err)
		}
		return nil, nil // No position held
	}

	pos, err := scanPosition(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return &pos, nil
}

// GetPositions returns all positions held by an account, ordered by symbol.
func (r *LedgerRepository) GetPositions(accountID int64) ([]domain.Position, error) {
	query := `SELECT id, account_id, symbol, shares, purchase_price, purchase_date
		FROM positions WHERE account_id = ? ORDER BY symbol`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// CommitTrade applies a trade's mutation set as one atomic unit: the balance
// update, the position upsert or delete, and the transaction insert either
// all land or none do. A crash or concurrent trade can never observe a
// deducted balance without the matching position and audit record.
func (r *LedgerRepository) CommitTrade(res *Result) error {
	if res == nil {
		return fmt.Errorf("nil trade result")
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"UPDATE accounts SET balance = ? WHERE id = ?",
			res.Balance.String(), res.AccountID,
		)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check balance update: %w", err)
		}
		if affected == 0 {
			return domain.ErrAccountNotFound
		}

		if res.RemovePosition {
			_, err = tx.Exec(
				"DELETE FROM positions WHERE account_id = ? AND symbol = ?",
				res.AccountID, res.Position.Symbol,
			)
			if err != nil {
				return fmt.Errorf("failed to delete position: %w", err)
			}
		} else {
			// Upsert keyed on (account_id, symbol). On a re-buy only the
			// share count changes; the recorded cost basis and purchase
			// date stay as they were.
			_, err = tx.Exec(`
				INSERT INTO positions (account_id, symbol, shares, purchase_price, purchase_date)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(account_id, symbol) DO UPDATE SET shares = excluded.shares`,
				res.Position.AccountID,
				res.Position.Symbol,
				res.Position.Shares,
				res.Position.PurchasePrice.String(),
				res.Position.PurchaseDate.Unix(),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert position: %w", err)
			}
		}

		insert, err := tx.Exec(`
			INSERT INTO transactions (account_id, symbol, shares, price, side, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.Transaction.AccountID,
			res.Transaction.Symbol,
			res.Transaction.Shares,
			res.Transaction.Price.String(),
			string(res.Transaction.Side),
			res.Transaction.Timestamp.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		if id, err := insert.LastInsertId(); err == nil {
			res.Transaction.ID = id
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Int64("account_id", res.AccountID).
		Str("symbol", res.Transaction.Symbol).
		Str("side", string(res.Transaction.Side)).
		Int64("shares", res.Transaction.Shares).
		Str("price", res.Transaction.Price.String()).
		Str("balance", res.Balance.String()).
		Msg("Trade committed")

	return nil
}

// History retrieves an account's transactions, newest first.
// limit <= 0 returns the full history.
func (r *LedgerRepository) History(accountID int64, limit int) ([]domain.Transaction, error) {
	query := `SELECT id, account_id, symbol, shares, price, side, timestamp
		FROM transactions WHERE account_id = ? ORDER BY timestamp DESC, id DESC`
	args := []interface{}{accountID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var price, side string
		var ts int64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &t.Shares, &price, &side, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price in transaction %d: %w", t.ID, err)
		}
		t.Side = domain.Side(side)
		t.Timestamp = time.Unix(ts, 0).UTC()
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// scanPosition scans a database row into a Position struct
func scanPosition(rows *sql.Rows) (domain.Position, error) {
	var pos domain.Position
	var purchasePrice string
	var purchaseDate int64

	err := rows.Scan(
		&pos.ID,
		&pos.AccountID,
		&pos.Symbol,
		&pos.Shares,
		&purchasePrice,
		&purchaseDate,
	)
	if err != nil {
		return pos, err
	}

	pos.PurchasePrice, err = decimal.NewFromString(purchasePrice)
	if err != nil {
		return pos, fmt.Errorf("corrupt purchase price: %w", err)
	}
	pos.PurchaseDate = time.Unix(purchaseDate, 0).UTC()

	return pos, nil
}
