// Package stocks maintains the listed-security directory: full-market
// refreshes from KRX and bundled US snapshots, and a cached search over the
// result.
package stocks

import (
	"context"
	"fmt"
	"time"

	"github.com/stocknote/stocknote/internal/logger"
	"github.com/stocknote/stocknote/internal/store"
)

// batchSize is the number of directory rows written per upsert call.
const batchSize = 500

// Metadata keys, one fixed key per market, overwritten on every run.
const (
	MetaKeyKRX = "krx_stocks"
	MetaKeyUS  = "us_stocks"
)

// Source produces a full market listing.
type Source interface {
	List(ctx context.Context) ([]store.Stock, error)
}

// Upserter writes directory batches.
type Upserter interface {
	UpsertBatch(ctx context.Context, batch []store.Stock) error
}

// MetaRecorder overwrites the per-market sync-metadata row.
type MetaRecorder interface {
	Record(ctx context.Context, key string, count int, syncedAt time.Time) error
}

// Syncer refreshes the stock directory from a listing source.
type Syncer struct {
	stocks Upserter
	meta   MetaRecorder
	now    func() time.Time
}

func NewSyncer(stocks Upserter, meta MetaRecorder) *Syncer {
	return &Syncer{stocks: stocks, meta: meta, now: time.Now}
}

// Sync fetches the full listing and upserts it in fixed-size batches keyed by
// code, then overwrites the market's sync-metadata row with the run's count
// and timestamp. A failing batch aborts the remaining ones; batches already
// written stay written, so a failed run can leave the directory in a mixed
// old/new state until the next successful run replaces it.
func (s *Syncer) Sync(ctx context.Context, metaKey string, src Source) (int, error) {
	log := logger.FromContext(ctx)

	listing, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("stocks: fetching listing: %w", err)
	}

	log.Info().
		Str("market", metaKey).
		Int("listing_count", len(listing)).
		Msg("Fetched market listing")

	for i := 0; i < len(listing); i += batchSize {
		end := i + batchSize
		if end > len(listing) {
			end = len(listing)
		}
		if err := s.stocks.UpsertBatch(ctx, listing[i:end]); err != nil {
			return 0, fmt.Errorf("stocks: upserting batch at offset %d: %w", i, err)
		}
	}

	if err := s.meta.Record(ctx, metaKey, len(listing), s.now()); err != nil {
		return 0, fmt.Errorf("stocks: recording sync metadata: %w", err)
	}

	log.Info().
		Str("market", metaKey).
		Int("count", len(listing)).
		Msg("Directory sync completed")

	return len(listing), nil
}
