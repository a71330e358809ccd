package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// goCacheWrapper adapts go-cache to the Cache interface.
type goCacheWrapper struct {
	cache *gocache.Cache
}

// NewGoCache creates the in-process backend.
func NewGoCache(config LocalConfig) Cache {
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = 5 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	return &goCacheWrapper{cache: gocache.New(config.DefaultExpiration, config.CleanupInterval)}
}

func (gc *goCacheWrapper) Get(_ context.Context, key string) (interface{}, bool) {
	return gc.cache.Get(key)
}

func (gc *goCacheWrapper) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	gc.cache.Set(key, value, expiration)
	return nil
}

func (gc *goCacheWrapper) Delete(_ context.Context, key string) error {
	gc.cache.Delete(key)
	return nil
}

func (gc *goCacheWrapper) Exists(_ context.Context, key string) bool {
	_, found := gc.cache.Get(key)
	return found
}

func (gc *goCacheWrapper) Clear(_ context.Context) error {
	gc.cache.Flush()
	return nil
}

func (gc *goCacheWrapper) GetWithTTL(_ context.Context, key string) (interface{}, time.Duration, bool) {
	value, expiration, found := gc.cache.GetWithExpiration(key)
	if !found {
		return nil, 0, false
	}
	var ttl time.Duration
	if !expiration.IsZero() {
		ttl = time.Until(expiration)
		if ttl < 0 {
			ttl = 0
		}
	}
	return value, ttl, true
}

func (gc *goCacheWrapper) Close() error { return nil }
