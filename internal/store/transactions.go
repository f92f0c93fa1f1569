package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TxType is the kind of portfolio event a transaction records.
type TxType string

const (
	TxBuy      TxType = "BUY"
	TxSell     TxType = "SELL"
	TxDividend TxType = "DIVIDEND"
	TxDeposit  TxType = "DEPOSIT"
	TxWithdraw TxType = "WITHDRAW"
)

// ParseTxType maps free-text input to a TxType, defaulting to BUY.
func ParseTxType(s string) TxType {
	switch TxType(s) {
	case TxBuy, TxSell, TxDividend, TxDeposit, TxWithdraw:
		return TxType(s)
	default:
		return TxBuy
	}
}

// Transaction is a row in the transactions table. Rows are immutable after
// insert except for SheetSynced, which flips false→true once the spreadsheet
// mirror write is confirmed.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Ticker      string          `json:"ticker"`
	Name        *string         `json:"name,omitempty"`
	Type        TxType          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	TradeDate   time.Time       `json:"trade_date"`
	SheetSynced bool            `json:"sheet_synced"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Transactions reads and writes the transactions table.
type Transactions struct {
	pool *pgxpool.Pool
}

func NewTransactions(pool *pgxpool.Pool) *Transactions {
	return &Transactions{pool: pool}
}

// Insert creates a transaction row and returns its generated id.
func (t *Transactions) Insert(ctx context.Context, tx *Transaction) (string, error) {
	id := uuid.NewString()
	_, err := t.pool.Exec(ctx, `
		INSERT INTO transactions
			(id, user_id, ticker, name, type, price, quantity, total, trade_date, sheet_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		id, tx.UserID, tx.Ticker, tx.Name, string(tx.Type),
		tx.Price, tx.Quantity, tx.Total, tx.TradeDate, tx.SheetSynced,
	)
	if err != nil {
		return "", fmt.Errorf("store: inserting transaction: %w", err)
	}
	return id, nil
}

// MarkSheetSynced records a confirmed spreadsheet write for a transaction.
func (t *Transactions) MarkSheetSynced(ctx context.Context, id string) error {
	_, err := t.pool.Exec(ctx,
		`UPDATE transactions SET sheet_synced = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: marking transaction synced: %w", err)
	}
	return nil
}

// ListByUser returns a user's transactions, newest trade first.
func (t *Transactions) ListByUser(ctx context.Context, userID string) ([]*Transaction, error) {
	rows, err := t.pool.Query(ctx, `
		SELECT id, user_id, ticker, name, type, price, quantity, total,
		       trade_date, sheet_synced, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY trade_date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: listing transactions: %w", err)
	}
	defer rows.Close()

	var result []*Transaction
	for rows.Next() {
		var tx Transaction
		var txType string
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Ticker, &tx.Name, &txType,
			&tx.Price, &tx.Quantity, &tx.Total,
			&tx.TradeDate, &tx.SheetSynced, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scanning transaction: %w", err)
		}
		tx.Type = TxType(txType)
		result = append(result, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating transactions: %w", err)
	}
	return result, nil
}
