package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) (*RedisKeyValueStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisKeyValueStore(client, time.Hour), mr
}

func TestRedisRoundTrip(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "sess-1", "tenant_id", "tenant-42"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "sess-1", "tenant_id")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || value != "tenant-42" {
		t.Fatalf("value = %q, ok = %v", value, ok)
	}
}

func TestRedisMissingKey(t *testing.T) {
	store, _ := setupRedisStore(t)

	_, ok, err := store.Get(context.Background(), "sess-1", "tenant_id")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestRedisDelete(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "sess-1", "tenant_id", "tenant-42")
	_ = store.Set(ctx, "sess-1", "tenant_form_data", "{}")
	_ = store.Set(ctx, "sess-2", "tenant_id", "tenant-43")

	if err := store.Delete(ctx, "sess-1", "tenant_id", "tenant_form_data"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "sess-1", "tenant_id"); ok {
		t.Fatal("key survived delete")
	}
	if _, ok, _ := store.Get(ctx, "sess-2", "tenant_id"); !ok {
		t.Fatal("unrelated session deleted")
	}
}

func TestRedisSetAppliesTTL(t *testing.T) {
	store, mr := setupRedisStore(t)

	_ = store.Set(context.Background(), "sess-1", "tenant_id", "tenant-42")

	ttl := mr.TTL("onboarding:sess-1:tenant_id")
	if ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}
}
