package cache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
)

// Package cache holds decoded images keyed by the URL they were fetched from.

// Cache is a keyed image store consulted before any network access.
// Implementations are safe for concurrent use; concurrent writers to the same key race
// and the last one wins.
type Cache interface {
	// Get returns (img, true, nil) on hit, (nil, false, nil) on miss and a non-nil error
	// when the store itself failed.
	Get(ctx context.Context, url string) (image.Image, bool, error)
	Put(ctx context.Context, url string, img image.Image) error
	Close() error
}

// Options controls retention characteristics for concrete cache implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	// Capacity bounds the number of in-memory entries; zero means unbounded.
	Capacity uint64
}

const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeBBolt  = "bbolt"
	TypeTiered = "tiered"

	defaultTTL             = 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// ErrNilImage is returned by Put when asked to store nothing.
var ErrNilImage = errors.New("cannot cache nil image")

// New creates the configured cache backend.
func New(typ, path string, opts Options) (Cache, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopCache{}, nil
	case TypeMemory:
		return newMemory(opts), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt cache requires a path")
		}
		return openBolt(path, opts)
	case TypeTiered:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("tiered cache requires a bbolt path")
		}
		back, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return newTiered(newMemory(opts), back), nil
	default:
		return nil, fmt.Errorf("unsupported cache type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopCache never hits and silently drops writes.
type noopCache struct{}

func (noopCache) Get(context.Context, string) (image.Image, bool, error) { return nil, false, nil }
func (noopCache) Put(context.Context, string, image.Image) error         { return nil }
func (noopCache) Close() error                                          { return nil }
