package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()

	ctx := context.Background()
	if err := mc.Set(ctx, "patient:p-001:last", "21.5", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "patient:p-001:last", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "21.5" {
		t.Fatalf("got %q, want 21.5", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got string
	if err := mc.Get(context.Background(), "patient:none", &got); err != ErrCacheMiss {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	if err := mc.Set(ctx, "patient:p-002:last", "19.0", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	var got string
	if err := mc.Get(ctx, "patient:p-002:last", &got); err != ErrCacheMiss {
		t.Fatalf("expired key: err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	ctx := context.Background()
	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	_ = mc.Set(ctx, "c", "3", time.Minute) // evicts the LRU entry

	count := 0
	for _, key := range []string{"a", "b", "c"} {
		var got string
		if err := mc.Get(ctx, key, &got); err == nil {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("entries after eviction = %d, want 2", count)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	_ = mc.Set(ctx, "patient:p-003:last", "17.0", time.Minute)
	if err := mc.Delete(ctx, "patient:p-003:last"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "patient:p-003:last", &got); err != ErrCacheMiss {
		t.Fatalf("deleted key: err = %v, want ErrCacheMiss", err)
	}
}
