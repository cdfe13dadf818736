package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLockStore_SingleWriterPerDelivery(t *testing.T) {
	client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	ok, err := store.AcquireDeliveryLock(ctx, "delivery-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	// A second writer for the same delivery is rejected while the first
	// transition is in flight.
	ok, err = store.AcquireDeliveryLock(ctx, "delivery-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second acquire on the same delivery should fail")
	}

	// Unrelated deliveries are not serialized.
	ok, err = store.AcquireDeliveryLock(ctx, "delivery-2", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("acquire on a different delivery should succeed")
	}
}

func TestLockStore_ReleaseAllowsReacquire(t *testing.T) {
	client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	if ok, _ := store.AcquireDeliveryLock(ctx, "delivery-1", 10*time.Second); !ok {
		t.Fatal("first acquire should succeed")
	}

	if err := store.ReleaseDeliveryLock(ctx, "delivery-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if ok, _ := store.AcquireDeliveryLock(ctx, "delivery-1", 10*time.Second); !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestCacheStore_DeliveryRoundTripAndInvalidate(t *testing.T) {
	client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	if cached, err := store.GetDelivery(ctx, "delivery-1"); err != nil || cached != nil {
		t.Fatalf("cold cache: got (%v, %v), want miss", cached, err)
	}

	want := &CachedDelivery{
		ID:         "delivery-1",
		DriverID:   "driver-1",
		Status:     "going_to_destination",
		TotalPrice: 450,
	}
	if err := store.SetDelivery(ctx, want); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	cached, err := store.GetDelivery(ctx, "delivery-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cached == nil || cached.Status != want.Status || cached.TotalPrice != want.TotalPrice {
		t.Fatalf("cached = %+v, want %+v", cached, want)
	}

	if err := store.InvalidateDelivery(ctx, "delivery-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if cached, _ := store.GetDelivery(ctx, "delivery-1"); cached != nil {
		t.Fatal("delivery still cached after invalidation")
	}
}

func TestCacheStore_BalanceRoundTripAndInvalidate(t *testing.T) {
	client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	if cached, err := store.GetBalance(ctx, "driver-1"); err != nil || cached != nil {
		t.Fatalf("cold cache: got (%v, %v), want miss", cached, err)
	}

	due := time.Now().Add(6 * time.Hour).Unix()
	want := &CachedBalance{
		DriverID:          "driver-1",
		CurrentBalance:    1250,
		PendingRemittance: 1250,
		NextRemittanceDue: due,
	}
	if err := store.SetBalance(ctx, want); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	cached, err := store.GetBalance(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cached == nil || cached.PendingRemittance != 1250 || cached.NextRemittanceDue != due {
		t.Fatalf("cached = %+v, want %+v", cached, want)
	}

	if err := store.InvalidateBalance(ctx, "driver-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if cached, _ := store.GetBalance(ctx, "driver-1"); cached != nil {
		t.Fatal("balance still cached after invalidation")
	}
}
