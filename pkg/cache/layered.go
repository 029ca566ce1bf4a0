package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredOption configures a LayeredCache.
type LayeredOption func(*LayeredCache)

// WithLayeredMemorySize caps the in-process front.
func WithLayeredMemorySize(size int) LayeredOption {
	return func(lc *LayeredCache) { lc.front = NewMemoryCache(WithMemoryMaxSize(size)) }
}

// LayeredCache keeps a small MemoryCache in front of a shared store. The
// store is written first; when that write fails the front copy is dropped so
// both layers agree on what was lost.
type LayeredCache struct {
	front    *MemoryCache
	store    Service
	frontTTL time.Duration
}

func NewLayeredCache(store Service, opts ...LayeredOption) *LayeredCache {
	lc := &LayeredCache{store: store, frontTTL: time.Minute}
	for _, opt := range opts {
		opt(lc)
	}
	if lc.front == nil {
		lc.front = NewMemoryCache()
	}
	return lc
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.store.Set(ctx, key, value, expiration); err != nil {
		_ = lc.front.Delete(ctx, key)
		return err
	}
	ttl := lc.frontTTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	return lc.front.Set(ctx, key, value, ttl)
}

// Get serves from the front when it can and refills it on a store hit.
func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.front.Get(ctx, key, dest) == nil {
		return nil
	}
	var raw []byte
	if err := lc.store.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.front.Set(ctx, key, raw, lc.frontTTL)
	return decode(raw, dest)
}

// GetFresh reads from the store, skipping the front, and refills the front.
// Read-modify-write callers use it so another instance's write is not lost.
func (lc *LayeredCache) GetFresh(ctx context.Context, key string, dest interface{}) error {
	var raw []byte
	if err := lc.store.Get(ctx, key, &raw); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			_ = lc.front.Delete(ctx, key)
		}
		return err
	}
	_ = lc.front.Set(ctx, key, raw, lc.frontTTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.front.Delete(ctx, keys...)
	return lc.store.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, _ := lc.front.Exists(ctx, keys...); ok {
		return true, nil
	}
	return lc.store.Exists(ctx, keys...)
}

func (lc *LayeredCache) Close() error {
	return errors.Join(lc.front.Close(), lc.store.Close())
}
