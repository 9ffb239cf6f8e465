package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
	ErrClosed       = errors.New("cache is closed")
	ErrInvalidKey   = errors.New("invalid cache key")
)

// Cache stores fetch responses between ingestion cycles. Get accepts a
// *string, *[]byte or encoding.BinaryUnmarshaler destination.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	CleanupInterval time.Duration

	// RedisURL selects the redis backend; empty means in-process memory.
	RedisURL string

	RedisPassword string

	RedisDB int

	Prefix string
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute * 5,
		Prefix:          "talentinsight",
	}
}

// Key joins parts under the configured prefix, e.g. "talentinsight:adzuna:fr:1".
func Key(prefix string, parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if prefix != "" {
		all = append(all, prefix)
	}
	for _, p := range parts {
		all = append(all, strings.ToLower(strings.TrimSpace(p)))
	}
	return strings.Join(all, ":")
}

// TTL resolves the effective expiry for a Set call.
func TTL(ttl time.Duration, opts Options) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if opts.DefaultTTL > 0 {
		return opts.DefaultTTL
	}
	return DefaultOptions().DefaultTTL
}
