package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("got %q,%v want v,true", got, ok)
	}
}

func TestCache_Generation(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	gen, ok := c.Generation(ctx, "questions")
	if !ok || gen != 0 {
		t.Fatalf("got %d,%v want 0,true", gen, ok)
	}

	c.Bump(ctx, "questions")
	c.Bump(ctx, "questions")

	if gen, _ := c.Generation(ctx, "questions"); gen != 2 {
		t.Fatalf("got generation %d, want 2", gen)
	}
	if gen, _ := c.Generation(ctx, "other"); gen != 0 {
		t.Fatalf("scopes must be independent, got %d", gen)
	}
}

func TestCache_SetDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	c := New(10 * time.Millisecond)

	c.Set(ctx, "old", []byte("v"))
	time.Sleep(25 * time.Millisecond)
	c.Set(ctx, "new", []byte("v"))

	c.mu.RLock()
	_, stillThere := c.m["old"]
	n := len(c.m)
	c.mu.RUnlock()

	if stillThere || n != 1 {
		t.Fatalf("expected only the fresh entry, got %d entries (old kept=%v)", n, stillThere)
	}
}

func TestCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := New(10 * time.Millisecond)

	c.Set(ctx, "k", []byte("v"))
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mr, NewRedis(rdb, time.Minute, log)
}

func TestRedisCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	c.Set(ctx, "questions:v2:g0:list", []byte(`[]`))

	got, ok := c.Get(ctx, "questions:v2:g0:list")
	if !ok || string(got) != "[]" {
		t.Fatalf("got %q,%v", got, ok)
	}

	if ttl := mr.TTL("questions:v2:g0:list"); ttl != time.Minute {
		t.Fatalf("got ttl %v, want 1m", ttl)
	}
}

func TestRedisCache_GenerationSharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	mr, a := newTestRedis(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	b := NewRedis(rdb, time.Minute, nil)

	if gen, ok := b.Generation(ctx, "questions"); !ok || gen != 0 {
		t.Fatalf("got %d,%v want 0,true", gen, ok)
	}

	a.Bump(ctx, "questions")

	if gen, ok := b.Generation(ctx, "questions"); !ok || gen != 1 {
		t.Fatalf("bump on one instance must be visible on the other, got %d,%v", gen, ok)
	}
	if mr.TTL(generationPrefix+"questions") != 0 {
		t.Fatalf("generation key must not expire")
	}
}

func TestRedisCache_ExpiryAndOutage(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	c.Set(ctx, "k", []byte("v"))
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected key to expire")
	}

	// a dead redis degrades to misses instead of failing requests
	mr.SetError("ERR simulated outage")
	c.Set(ctx, "k", []byte("v"))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss while redis is down")
	}
	if _, ok := c.Generation(ctx, "questions"); ok {
		t.Fatalf("expected generation to be unavailable while redis is down")
	}
}
