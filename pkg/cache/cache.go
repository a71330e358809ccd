package cache

import (
	"context"
	"time"
)

// Cache is the shared cache contract. The local backend is go-cache; redis is
// available for deployments where lookups should survive restarts.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores the value with an expiration; 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a live entry exists.
	Exists(ctx context.Context, key string) bool

	// Clear removes everything.
	Clear(ctx context.Context) error

	// GetWithTTL returns the value plus remaining TTL.
	GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool)

	// Close releases backend connections.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Type is "gocache" or "redis".
	Type string `json:"type" env:"CACHE_TYPE" default:"gocache"`

	Redis RedisConfig `json:"redis"`
	Local LocalConfig `json:"local"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr         string        `json:"addr" env:"REDIS_ADDR" default:"localhost:6379"`
	Password     string        `json:"password" env:"REDIS_PASSWORD"`
	DB           int           `json:"db" env:"REDIS_DB" default:"0"`
	PoolSize     int           `json:"pool_size" env:"REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" env:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// LocalConfig configures the in-process backend.
type LocalConfig struct {
	DefaultExpiration time.Duration `json:"default_expiration" env:"LOCAL_CACHE_DEFAULT_EXPIRATION" default:"5m"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"LOCAL_CACHE_CLEANUP_INTERVAL" default:"10m"`
}
