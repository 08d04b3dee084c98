package cache

import (
	"context"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewCacheSupportsNoop(t *testing.T) {
	c, err := New("none", "", Options{})
	if err != nil {
		t.Fatalf("New none: %v", err)
	}
	if err := c.Put(context.Background(), "x", testImage(color.White)); err != nil {
		t.Fatalf("noop Put: %v", err)
	}
	if _, ok, _ := c.Get(context.Background(), "x"); ok {
		t.Fatalf("noop cache must never hit")
	}
}

func TestNewCacheValidatesType(t *testing.T) {
	if _, err := New("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := New(TypeBBolt, " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c, err := New(TypeMemory, "", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("New memory: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := "http://x/" + string(rune('a'+i)) + ".png"
			if err := c.Put(ctx, url, testImage(color.Black)); err != nil {
				t.Errorf("Put: %v", err)
			}
			if _, ok, err := c.Get(ctx, url); err != nil || !ok {
				t.Errorf("Get %s: ok=%v err=%v", url, ok, err)
			}
		}(i)
	}
	wg.Wait()

	if got := c.(*memoryCache).Len(); got != 16 {
		t.Fatalf("expected 16 entries, got %d", got)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMemoryCacheCapacity(t *testing.T) {
	c := newMemory(Options{TTL: time.Minute, Capacity: 1})
	defer c.Close()

	ctx := context.Background()
	_ = c.Put(ctx, "a", testImage(color.Black))
	_ = c.Put(ctx, "b", testImage(color.White))
	if c.Len() != 1 {
		t.Fatalf("expected capacity to bound entries, got %d", c.Len())
	}
}

func TestTieredCachePromotesBackHits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	ctx := context.Background()

	back, err := openBolt(path, normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	if err := back.Put(ctx, "u", testImage(color.White)); err != nil {
		t.Fatalf("seed back tier: %v", err)
	}

	front := newMemory(normalizeOptions(Options{}))
	tiered := newTiered(front, back)
	defer tiered.Close()

	if _, ok, err := tiered.Get(ctx, "u"); err != nil || !ok {
		t.Fatalf("expected hit from back tier, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := front.Get(ctx, "u"); !ok {
		t.Fatalf("expected back hit to be promoted to memory")
	}
}
