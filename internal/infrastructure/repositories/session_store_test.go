package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/you/shopauthsvc/domain"
)

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestSessionStoreImpl_NewID(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)

	id, err := store.NewID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	other, err := store.NewID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == other {
		t.Error("expected ids to be unique")
	}

	// Allocating ids must not persist anything
	if got := len(mr.Keys()); got != 0 {
		t.Errorf("expected no keys after NewID, found %d", got)
	}
}

func TestSessionStoreImpl_LazyPersistence(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	id, _ := store.NewID()

	// Reading an unmutated session is an expected miss, and reads never
	// create records either.
	if _, err := store.Get(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if got := len(mr.Keys()); got != 0 {
		t.Fatalf("expected no keys after Get, found %d", got)
	}

	// First mutation persists
	session, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 2)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Cart.Quantity("sku-1") != 2 {
		t.Errorf("expected quantity 2, got %d", session.Cart.Quantity("sku-1"))
	}
	if !mr.Exists("sess:" + id) {
		t.Error("expected session record after first mutation")
	}
}

func TestSessionStoreImpl_SlidingTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ttl := time.Hour
	store := NewSessionStore(client, ttl)
	ctx := context.Background()

	id, _ := store.NewID()
	if _, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 1)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := "sess:" + id
	mr.FastForward(30 * time.Minute)
	if got := mr.TTL(key); got > 30*time.Minute+time.Second {
		t.Fatalf("expected ttl to have decayed, got %v", got)
	}

	// Every write pushes expiry a full TTL into the future
	if _, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-2", 1)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mr.TTL(key); got < ttl-time.Minute {
		t.Errorf("expected ttl restored to ~%v, got %v", ttl, got)
	}
}

func TestSessionStoreImpl_MutateToEmptyRemovesRecord(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	id, _ := store.NewID()
	if _, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 1)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 0)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.Cart.IsEmpty() {
		t.Errorf("expected empty cart, got %v", session.Cart)
	}
	if mr.Exists("sess:" + id) {
		t.Error("expected record removed once the cart emptied")
	}
}

func TestSessionStoreImpl_ConcurrentMutations(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	id, _ := store.NewID()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
				return c.WithItem("sku-1", c.Quantity("sku-1")+1)
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: unexpected error: %v", i, err)
		}
	}

	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := session.Cart.Quantity("sku-1"); got != workers {
		t.Errorf("expected %d increments to all land, got %d", workers, got)
	}
}

func TestSessionStoreImpl_TakeIsAtMostOnce(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	id, _ := store.NewID()
	if _, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 3)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart, err := store.Take(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Quantity("sku-1") != 3 {
		t.Errorf("expected quantity 3, got %d", cart.Quantity("sku-1"))
	}

	// Second take observes the post-take state
	if _, err := store.Take(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second take, got %v", err)
	}
}

func TestSessionStoreImpl_Restore(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	id, _ := store.NewID()
	cart := domain.Cart{{ProductRef: "sku-1", Quantity: 2}}
	if err := store.Restore(ctx, id, cart); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Cart.Quantity("sku-1") != 2 {
		t.Errorf("expected restored quantity 2, got %d", session.Cart.Quantity("sku-1"))
	}
}

func TestSessionStoreImpl_DestroyIsIdempotent(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	id, _ := store.NewID()
	if _, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 1)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Destroy(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Destroy(ctx, id); err != nil {
		t.Errorf("expected destroying an absent session to succeed, got %v", err)
	}
	if err := store.Destroy(ctx, "never-existed"); err != nil {
		t.Errorf("expected destroying an unknown session to succeed, got %v", err)
	}
}

func TestSessionStoreImpl_ExpiredSessionReadsAsAbsent(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, 50*time.Millisecond)
	ctx := context.Background()

	id, _ := store.NewID()
	if _, err := store.Mutate(ctx, id, func(c domain.Cart) domain.Cart {
		return c.WithItem("sku-1", 1)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The record is still in Redis but past its payload expiry
	time.Sleep(60 * time.Millisecond)
	if !mr.Exists("sess:" + id) {
		t.Fatal("expected the raw record to still exist")
	}

	if _, err := store.Get(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for expired session, got %v", err)
	}
}
