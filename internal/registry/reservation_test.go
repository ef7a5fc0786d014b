package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/observability"
	"github.com/caioevelyn/giftregistry/internal/registry"
)

func newEngine(store *fakeStore) *registry.Engine {
	return registry.NewEngine(store, time.Second, observability.NewLogger())
}

func seedItem(t *testing.T, store *fakeStore, allowMultiple bool, maxQuantity int) domain.CatalogItem {
	t.Helper()
	item := domain.NewCatalogItem("Toaster", "four slices", "", "", domain.CategoryKitchen, allowMultiple, maxQuantity)
	if err := store.CreateItem(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	return item
}

func TestEngine_Reserve_SingleUnit(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store)
	item := seedItem(t, store, false, 0)

	got, err := engine.Reserve(context.Background(), item.ID, uuid.New(), "Guest A")
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if got.PurchaseCount != 1 || !got.Reserved {
		t.Errorf("want count=1 reserved=true, got count=%d reserved=%v", got.PurchaseCount, got.Reserved)
	}
	if got.ReservedBy != "Guest A" {
		t.Errorf("want last reserver Guest A, got %q", got.ReservedBy)
	}

	_, err = engine.Reserve(context.Background(), item.ID, uuid.New(), "Guest B")
	if !errors.Is(err, domain.ErrExhausted) {
		t.Errorf("want ErrExhausted for second guest, got %v", err)
	}
}

func TestEngine_Reserve_MultiUnit(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store)
	item := seedItem(t, store, true, 3)

	for i := 0; i < 2; i++ {
		if _, err := engine.Reserve(context.Background(), item.ID, uuid.New(), "early guest"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := engine.Reserve(context.Background(), item.ID, uuid.New(), "third guest")
	if err != nil {
		t.Fatalf("third reserve: %v", err)
	}
	if got.PurchaseCount != 3 || !got.Reserved {
		t.Errorf("want count=3 reserved=true, got count=%d reserved=%v", got.PurchaseCount, got.Reserved)
	}

	_, err = engine.Reserve(context.Background(), item.ID, uuid.New(), "late guest")
	if !errors.Is(err, domain.ErrExhausted) {
		t.Errorf("want ErrExhausted once max reached, got %v", err)
	}
}

func TestEngine_Reserve_UnknownItem(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store)

	_, err := engine.Reserve(context.Background(), uuid.New(), uuid.New(), "guest")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

// Concurrent reservations on an item with K units: exactly min(N, K)
// succeed and the count never exceeds K.
func TestEngine_Reserve_Concurrent(t *testing.T) {
	const (
		guests = 20
		units  = 5
	)
	store := newFakeStore()
	engine := newEngine(store)
	item := seedItem(t, store, true, units)

	var wg sync.WaitGroup
	results := make(chan error, guests)
	for i := 0; i < guests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Reserve(context.Background(), item.ID, uuid.New(), "racer")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, exhausted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != units {
		t.Errorf("want %d successful reservations, got %d", units, succeeded)
	}
	if exhausted != guests-units {
		t.Errorf("want %d exhausted, got %d", guests-units, exhausted)
	}

	final, err := store.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.PurchaseCount != units {
		t.Errorf("purchase count overran the ceiling: %d > %d", final.PurchaseCount, units)
	}
	if final.Reserved != (final.PurchaseCount >= final.MaxQuantity) {
		t.Errorf("reserved flag inconsistent: reserved=%v count=%d max=%d", final.Reserved, final.PurchaseCount, final.MaxQuantity)
	}
}
