package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PaperDesk/internal/domain/models"
	"PaperDesk/pkg/cache"
)

func TestAccountStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewCacheAccountStore(cache.NewMemoryCache())
	defer store.Close()

	rec := &models.AccountRecord{
		Cash:      1234.5,
		Asset:     2.5,
		AvgCost:   88.2,
		LastPrice: 91.0,
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, "alice", rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Cash != rec.Cash || got.Asset != rec.Asset || got.AvgCost != rec.AvgCost {
		t.Fatalf("loaded %+v, want %+v", got, rec)
	}
}

func TestAccountStoreMiss(t *testing.T) {
	store := NewCacheAccountStore(cache.NewMemoryCache())
	defer store.Close()

	if _, err := store.Load(context.Background(), "ghost"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("load miss: %v, want ErrAccountNotFound", err)
	}
}

func TestSaveLastPriceMerges(t *testing.T) {
	ctx := context.Background()
	store := NewCacheAccountStore(cache.NewMemoryCache())
	defer store.Close()

	if err := store.Save(ctx, "bob", &models.AccountRecord{Cash: 500, LastPrice: 90}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveLastPrice(ctx, "bob", 104.25); err != nil {
		t.Fatalf("save last price: %v", err)
	}

	got, err := store.Load(ctx, "bob")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LastPrice != 104.25 {
		t.Fatalf("last price %v, want 104.25", got.LastPrice)
	}
	if got.Cash != 500 {
		t.Fatalf("merge clobbered cash: %v", got.Cash)
	}
}

func TestSaveLastPriceWithoutAccount(t *testing.T) {
	store := NewCacheAccountStore(cache.NewMemoryCache())
	defer store.Close()

	// A price with no record is harmless; loading still reports a miss.
	if err := store.SaveLastPrice(context.Background(), "ghost", 50); err != nil {
		t.Fatalf("save last price on missing account: %v", err)
	}
	if _, err := store.Load(context.Background(), "ghost"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("load after orphan price: %v, want ErrAccountNotFound", err)
	}
}

func TestLastPriceWriteNeverTouchesBalances(t *testing.T) {
	ctx := context.Background()
	store := NewCacheAccountStore(cache.NewMemoryCache())
	defer store.Close()

	if err := store.Save(ctx, "carol", &models.AccountRecord{Cash: 0, LastPrice: 90}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Hammer the price key while the record is rewritten; a loaded record
	// must always carry the cash of the latest Save, never a stale value
	// dragged back in by a price write.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
				_ = store.SaveLastPrice(ctx, "carol", float64(100+i%50))
			}
		}
	}()

	for i := 1; i <= 200; i++ {
		if err := store.Save(ctx, "carol", &models.AccountRecord{Cash: float64(i), LastPrice: 90}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		rec, err := store.Load(ctx, "carol")
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if rec.Cash != float64(i) {
			t.Fatalf("iteration %d: cash %v reverted by a price write", i, rec.Cash)
		}
	}
	close(done)
	wg.Wait()
}
