package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"warbler/internal/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := store.Set(ctx, "wikipedia:Northern Cardinal", payload{Name: "cardinal", Count: 3}, 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	raw, ok, err := store.Get(ctx, "wikipedia:Northern Cardinal")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}

	var got payload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal cached payload: %v", err)
	}
	if got.Name != "cardinal" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestStoreMiss(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestStoreSetOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "key", "first", 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Set(ctx, "key", "second", 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	raw, ok, err := store.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get returned ok=%v err=%v", ok, err)
	}
	var got string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal cached payload: %v", err)
	}
	if got != "second" {
		t.Fatalf("expected overwritten value, got %q", got)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", count)
	}
}

func TestStoreExpiredEntryIsMissAndDeleted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// Advance the store's clock past the entry's expiry.
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, ok, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to be a miss")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected expired row to be deleted, found %d entries", count)
	}
}

func TestStoreCleanupExpired(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "fresh", "value", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Set(ctx, "stale-1", "value", time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Set(ctx, "stale-2", "value", time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed entries, got %d", removed)
	}

	_, ok, err := store.Get(ctx, "fresh")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected unexpired entry to survive cleanup")
	}
}

func TestStoreClearAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, key, key, 0); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll returned error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cache, found %d entries", count)
	}
}

func TestStoreReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Set(ctx, "key", "value", 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := Open(dir, time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	_, ok, err := reopened.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to persist across reopen")
	}
}
