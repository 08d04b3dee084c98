package cache

import (
	"context"
	"image"
	"sync"

	"github.com/jellydator/ttlcache/v3"
)

// memoryCache keeps decoded images in process memory with TTL expiry and an optional capacity bound.
type memoryCache struct {
	items     *ttlcache.Cache[string, image.Image]
	closeOnce sync.Once
}

func newMemory(opts Options) *memoryCache {
	items := ttlcache.New[string, image.Image](
		ttlcache.WithTTL[string, image.Image](opts.TTL),
		ttlcache.WithCapacity[string, image.Image](opts.Capacity),
	)
	go items.Start()
	return &memoryCache{items: items}
}

func (m *memoryCache) Get(_ context.Context, url string) (image.Image, bool, error) {
	item := m.items.Get(url)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *memoryCache) Put(_ context.Context, url string, img image.Image) error {
	if img == nil {
		return ErrNilImage
	}
	m.items.Set(url, img, ttlcache.DefaultTTL)
	return nil
}

// Close stops the expiry loop. Safe to call more than once.
func (m *memoryCache) Close() error {
	m.closeOnce.Do(m.items.Stop)
	return nil
}

// Len reports the number of live entries.
func (m *memoryCache) Len() int { return m.items.Len() }
