package driver

import (
	"context"
	"sync"
	"time"

	"AegisGuard/internal/models"
)

// CachedLocation wraps another provider and keeps the last good fix so that a
// flaky GPS does not leave the protocol blind. Fixes older than
// models.MaxLocationAge are discarded rather than served.
type CachedLocation struct {
	inner LocationProvider

	mu   sync.Mutex
	last *models.Location
}

func NewCachedLocation(inner LocationProvider) *CachedLocation {
	return &CachedLocation{inner: inner}
}

func (c *CachedLocation) Current(ctx context.Context) (*models.Location, error) {
	loc, err := c.inner.Current(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil && loc != nil {
		cp := *loc
		c.last = &cp
		out := cp
		return &out, nil
	}
	if c.last != nil && !c.last.Stale(time.Now()) {
		out := *c.last
		return &out, nil
	}
	return nil, err
}

// Record installs a fix pushed from outside (for example the HTTP location
// endpoint) as the cached last-known position.
func (c *CachedLocation) Record(loc models.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := loc
	c.last = &cp
}

// StaticLocation always returns the same fix, stamped at call time. Used in
// tests and demo deployments without a GPS feed.
type StaticLocation struct {
	Lat, Lng float64
}

func (s StaticLocation) Current(context.Context) (*models.Location, error) {
	return &models.Location{Latitude: s.Lat, Longitude: s.Lng, Accuracy: 10, Timestamp: time.Now()}, nil
}
