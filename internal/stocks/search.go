package stocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/stocknote/stocknote/internal/store"
)

// cacheTTL is how long a search result stays fresh. Concurrent requests
// around expiry may each refetch; the writes are idempotent replacements, so
// the race is benign.
const cacheTTL = time.Hour

const searchLimit = 20

// Searcher answers directory lookups through a short-lived cache.
type Searcher struct {
	stocks interface {
		Search(ctx context.Context, query string, limit int) ([]store.Stock, error)
	}
	cache *ristretto.Cache
}

func NewSearcher(stocks *store.Stocks) (*Searcher, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("stocks: creating search cache: %w", err)
	}
	return &Searcher{stocks: stocks, cache: cache}, nil
}

// Search matches directory rows by code or name, serving repeated queries
// from the cache for up to an hour.
func (s *Searcher) Search(ctx context.Context, query string) ([]store.Stock, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := strings.ToUpper(query)
	if cached, ok := s.cache.Get(key); ok {
		if listing, ok := cached.([]store.Stock); ok {
			return listing, nil
		}
	}

	listing, err := s.stocks.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(key, listing, 1, cacheTTL)
	return listing, nil
}
