package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/pmreport/internal/port/cache"
)

var _ cache.Cache = (*Cache)(nil)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCacheSetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "report:s1:1", []byte("%PDF-1.3"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "report:s1:1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != "%PDF-1.3" {
		t.Fatalf("got %q", got)
	}

	_ = c.Delete(ctx, "report:s1:1")
	if _, ok, _ := c.Get(ctx, "report:s1:1"); ok {
		t.Fatal("expected miss after Delete")
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t)
	if _, ok, err := c.Get(context.Background(), "report:none:1"); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestCacheTTLExpires(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "report:short:1", []byte("doc"), 50*time.Millisecond)
	time.Sleep(1200 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "report:short:1"); ok {
		t.Fatal("expected entry to expire")
	}
}
