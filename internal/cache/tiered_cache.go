package cache

import (
	"context"
	"errors"
	"image"
)

// tieredCache fronts a persistent cache with an in-memory one.
// Reads fall through to the back tier and promote hits; writes go to both tiers.
type tieredCache struct {
	front Cache
	back  Cache
}

func newTiered(front, back Cache) *tieredCache {
	return &tieredCache{front: front, back: back}
}

func (t *tieredCache) Get(ctx context.Context, url string) (image.Image, bool, error) {
	if img, ok, err := t.front.Get(ctx, url); err != nil || ok {
		return img, ok, err
	}
	img, ok, err := t.back.Get(ctx, url)
	if err != nil || !ok {
		return nil, false, err
	}
	// promotion failure only costs a future memory hit
	_ = t.front.Put(ctx, url, img)
	return img, true, nil
}

func (t *tieredCache) Put(ctx context.Context, url string, img image.Image) error {
	if err := t.back.Put(ctx, url, img); err != nil {
		return err
	}
	return t.front.Put(ctx, url, img)
}

func (t *tieredCache) Close() error {
	return errors.Join(t.front.Close(), t.back.Close())
}
