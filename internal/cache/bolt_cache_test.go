package cache

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"
)

func testImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestBoltCacheStoresAndExpiresImages(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	}

	store, err := openBolt(dir+"/images.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	clock := time.Now()
	store.now = func() time.Time { return clock }

	if _, ok, err := store.Get(ctx, "http://x/one.png"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "http://x/one.png", testImage(color.RGBA{R: 255, A: 255})); err != nil {
		t.Fatalf("Put: %v", err)
	}

	img, ok, err := store.Get(ctx, "http://x/one.png")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xffff {
		t.Fatalf("unexpected pixel red=%x", r)
	}

	// Jump past TTL and cleanup cadence.
	clock = clock.Add(2 * time.Minute)

	if _, ok, err := store.Get(ctx, "http://x/one.png"); err != nil || ok {
		t.Fatalf("expected entry to expire, ok=%v err=%v", ok, err)
	}
}

func TestBoltCacheRejectsNilImage(t *testing.T) {
	store, err := openBolt(t.TempDir()+"/images.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if err := store.Put(context.Background(), "u", nil); err != ErrNilImage {
		t.Fatalf("expected ErrNilImage, got %v", err)
	}
}

func TestBoltCacheReadFailsAfterClose(t *testing.T) {
	store, err := openBolt(t.TempDir()+"/images.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store.Close()

	if _, _, err := store.Get(context.Background(), "u"); err == nil {
		t.Fatalf("expected error reading closed database")
	}
}
