package stocks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stocknote/stocknote/internal/store"
)

type fakeSource struct {
	listing []store.Stock
	err     error
}

func (f *fakeSource) List(ctx context.Context) ([]store.Stock, error) {
	return f.listing, f.err
}

type fakeUpserter struct {
	batches [][]store.Stock
	failAt  int // 1-based batch index to fail on, 0 = never
}

func (f *fakeUpserter) UpsertBatch(ctx context.Context, batch []store.Stock) error {
	f.batches = append(f.batches, batch)
	if f.failAt > 0 && len(f.batches) == f.failAt {
		return errors.New("upsert failed")
	}
	return nil
}

type fakeMeta struct {
	key   string
	count int
	calls int
}

func (f *fakeMeta) Record(ctx context.Context, key string, count int, syncedAt time.Time) error {
	f.key = key
	f.count = count
	f.calls++
	return nil
}

func syntheticListing(n int) []store.Stock {
	listing := make([]store.Stock, n)
	for i := range listing {
		listing[i] = store.Stock{
			Code:   fmt.Sprintf("%06d", i),
			Name:   fmt.Sprintf("Stock %d", i),
			Market: "KOSPI",
		}
	}
	return listing
}

// 1,200 rows at a batch size of 500 means exactly three upsert calls and a
// metadata count of 1,200.
func TestSync_BatchesOf500(t *testing.T) {
	up := &fakeUpserter{}
	meta := &fakeMeta{}
	syncer := NewSyncer(up, meta)

	count, err := syncer.Sync(context.Background(), MetaKeyKRX, &fakeSource{listing: syntheticListing(1200)})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if count != 1200 {
		t.Errorf("count = %d, want 1200", count)
	}
	if len(up.batches) != 3 {
		t.Fatalf("upsert calls = %d, want 3", len(up.batches))
	}
	for i, want := range []int{500, 500, 200} {
		if len(up.batches[i]) != want {
			t.Errorf("batch %d size = %d, want %d", i, len(up.batches[i]), want)
		}
	}
	if meta.key != MetaKeyKRX || meta.count != 1200 || meta.calls != 1 {
		t.Errorf("metadata = %+v, want key=%s count=1200 calls=1", meta, MetaKeyKRX)
	}
}

func TestSync_ExactMultipleOfBatchSize(t *testing.T) {
	up := &fakeUpserter{}
	syncer := NewSyncer(up, &fakeMeta{})

	if _, err := syncer.Sync(context.Background(), MetaKeyUS, &fakeSource{listing: syntheticListing(1000)}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(up.batches) != 2 {
		t.Errorf("upsert calls = %d, want 2", len(up.batches))
	}
}

// A failing batch aborts the loop. Earlier batches stay applied and no
// metadata row is written for the failed run.
func TestSync_BatchFailureAbortsWithoutCompensation(t *testing.T) {
	up := &fakeUpserter{failAt: 2}
	meta := &fakeMeta{}
	syncer := NewSyncer(up, meta)

	_, err := syncer.Sync(context.Background(), MetaKeyKRX, &fakeSource{listing: syntheticListing(1200)})
	if err == nil {
		t.Fatal("expected error from failing batch")
	}

	if len(up.batches) != 2 {
		t.Errorf("upsert calls = %d, want 2 (first success, second failure, third never issued)", len(up.batches))
	}
	if meta.calls != 0 {
		t.Errorf("metadata writes = %d, want 0", meta.calls)
	}
}

func TestSync_SourceFailure(t *testing.T) {
	up := &fakeUpserter{}
	syncer := NewSyncer(up, &fakeMeta{})

	_, err := syncer.Sync(context.Background(), MetaKeyKRX, &fakeSource{err: errors.New("KRX unreachable")})
	if err == nil {
		t.Fatal("expected error from failing source")
	}
	if len(up.batches) != 0 {
		t.Errorf("upsert calls = %d, want 0", len(up.batches))
	}
}

func TestSync_EmptyListing(t *testing.T) {
	up := &fakeUpserter{}
	meta := &fakeMeta{}
	syncer := NewSyncer(up, meta)

	count, err := syncer.Sync(context.Background(), MetaKeyUS, &fakeSource{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if count != 0 || len(up.batches) != 0 {
		t.Errorf("count = %d, batches = %d, want 0/0", count, len(up.batches))
	}
	// An empty run still overwrites the metadata row.
	if meta.calls != 1 || meta.count != 0 {
		t.Errorf("metadata = %+v, want one write with count 0", meta)
	}
}

func TestUSSource_ParsesBundledSnapshots(t *testing.T) {
	listing, err := NewUSSource().List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing) == 0 {
		t.Fatal("expected rows from bundled snapshots")
	}

	markets := map[string]bool{}
	for _, stock := range listing {
		if stock.Code == "" || stock.Name == "" {
			t.Errorf("incomplete row: %+v", stock)
		}
		markets[stock.Market] = true
	}
	if !markets["NASDAQ"] || !markets["NYSE"] {
		t.Errorf("markets = %v, want both NASDAQ and NYSE", markets)
	}
}
