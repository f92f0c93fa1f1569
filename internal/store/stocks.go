package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stock is one listed security in the directory.
type Stock struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// Stocks reads and writes the stock directory.
type Stocks struct {
	pool *pgxpool.Pool
}

func NewStocks(pool *pgxpool.Pool) *Stocks {
	return &Stocks{pool: pool}
}

// UpsertBatch writes one batch of directory rows keyed by code. Matching rows
// are fully overwritten, not merged.
func (s *Stocks) UpsertBatch(ctx context.Context, batch []Stock) error {
	b := &pgx.Batch{}
	for _, stock := range batch {
		b.Queue(`
			INSERT INTO stocks (code, name, market, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name, market = EXCLUDED.market, updated_at = NOW()
		`, stock.Code, stock.Name, stock.Market)
	}

	results := s.pool.SendBatch(ctx, b)
	defer results.Close()

	for range batch {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("store: upserting stock batch: %w", err)
		}
	}
	return nil
}

// Search matches directory rows by code prefix or name substring.
func (s *Stocks) Search(ctx context.Context, query string, limit int) ([]Stock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, name, market
		FROM stocks
		WHERE code ILIKE $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY code
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: searching stocks: %w", err)
	}
	defer rows.Close()

	var result []Stock
	for rows.Next() {
		var stock Stock
		if err := rows.Scan(&stock.Code, &stock.Name, &stock.Market); err != nil {
			return nil, fmt.Errorf("store: scanning stock: %w", err)
		}
		result = append(result, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating stocks: %w", err)
	}
	return result, nil
}

// SyncMeta records the outcome of the last directory sync per market. The row
// is keyed by a fixed string and overwritten on each run; no history is kept.
type SyncMeta struct {
	pool *pgxpool.Pool
}

func NewSyncMeta(pool *pgxpool.Pool) *SyncMeta {
	return &SyncMeta{pool: pool}
}

// Record overwrites the sync-metadata row for a market key.
func (m *SyncMeta) Record(ctx context.Context, key string, count int, syncedAt time.Time) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO sync_metadata (key, count, synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET count = EXCLUDED.count, synced_at = EXCLUDED.synced_at
	`, key, count, syncedAt)
	if err != nil {
		return fmt.Errorf("store: recording sync metadata: %w", err)
	}
	return nil
}
