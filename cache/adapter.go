package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/raidprofile/cache/local"
	cacheredis "github.com/kasuganosora/raidprofile/cache/redis"
)

// Cache is the small key/value and sorted-set surface shared by the profile
// read cache, the per-session prestige lock and the prestige ranking.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	// Expire resets the TTL of key. A non-positive ttl deletes it.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// DelIfEqual deletes key only while it still holds value.
	DelIfEqual(ctx context.Context, key, value string) (bool, error)

	ZAdd(ctx context.Context, key string, score float64, member string) error
	// ZRevRange lists members highest score first; equal scores come in
	// reverse member order.
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZScore(ctx context.Context, key, member string) (float64, error)
	ZRem(ctx context.Context, key, member string) error
}

// CacheConfig selects and tunes a backend.
type CacheConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	LocalGCInterval time.Duration
}

// NewCache returns a Redis-backed Cache when RedisAddr is set and an
// in-process one otherwise.
func NewCache(cfg CacheConfig) (Cache, error) {
	if cfg.RedisAddr == "" {
		return local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
	}
	rc, err := cacheredis.NewCache(cacheredis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cache")
	}
	return rc, nil
}

// Close releases backend resources when the Cache holds any.
func Close(c Cache) error {
	switch v := c.(type) {
	case *cacheredis.RedisCache:
		return v.Close()
	case *local.LocalCache:
		v.Close()
	}
	return nil
}

// IsNotFound reports whether err is a cache miss from either backend.
func IsNotFound(err error) bool {
	return errors.Is(err, local.ErrNotFound) || errors.Is(err, cacheredis.ErrNotFound)
}
