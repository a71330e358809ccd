package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/pkg/cache"
)

// CachedPlaces memoizes safe place lookups per rough location cell. Values go
// through JSON so the wrapper works with both the in-process and the redis
// backend.
type CachedPlaces struct {
	inner SafePlaceFinder
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedPlaces(inner SafePlaceFinder, c cache.Cache, ttl time.Duration) *CachedPlaces {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedPlaces{inner: inner, cache: c, ttl: ttl}
}

func (p *CachedPlaces) FindNearby(ctx context.Context, loc models.Location) ([]models.SafePlace, error) {
	// ~1km cells; close-by queries share an entry.
	key := fmt.Sprintf("places:%.2f:%.2f", loc.Latitude, loc.Longitude)

	if raw, ok := p.cache.Get(ctx, key); ok {
		if places, err := decodePlaces(raw); err == nil {
			return places, nil
		}
		_ = p.cache.Delete(ctx, key)
	}

	places, err := p.inner.FindNearby(ctx, loc)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(places); err == nil {
		_ = p.cache.Set(ctx, key, string(payload), p.ttl)
	}
	return places, nil
}

func decodePlaces(raw interface{}) ([]models.SafePlace, error) {
	var payload []byte
	switch v := raw.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		return nil, fmt.Errorf("unexpected cache value type %T", raw)
	}
	var places []models.SafePlace
	if err := json.Unmarshal(payload, &places); err != nil {
		return nil, err
	}
	return places, nil
}
