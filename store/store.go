// Package store defines the upstream key-value contract the cache engine
// accelerates, along with Redis-backed and in-memory implementations.
//
// The store is the authoritative, cross-process layer: every value the engine
// keeps locally is a non-authoritative copy of what the store holds. Values
// are serialized to msgpack on the way in and returned as raw bytes on the
// way out; callers decode with [Decode] or the engine's typed helpers.
package store

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is the minimal contract required of the upstream key-value store.
type Store interface {
	// Get returns the serialized value for key, or found=false on a miss.
	Get(ctx context.Context, key string) (found bool, data []byte, err error)
	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Del removes key, reporting whether it existed.
	Del(ctx context.Context, key string) (bool, error)
	// Expire replaces the remaining TTL for key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Keys lists keys matching a glob pattern where only `*` is a wildcard.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close releases resources owned by the store.
	Close() error
}

// Encode serializes a value the way every Store implementation stores it.
func Encode(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

// Decode deserializes bytes produced by Encode into out.
func Decode(data []byte, out any) error {
	return msgpack.Unmarshal(data, out)
}

// DefaultQueryTimeout is the per-operation timeout for stores that perform
// I/O. Prevents indefinite hangs on slow or unresponsive storage.
const DefaultQueryTimeout = 5 * time.Second

type config struct {
	queryTimeout time.Duration
	prefix       string
}

// Option configures a Store implementation.
type Option func(*config)

func applyOptions(opts []Option) config {
	cfg := config{queryTimeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed stores.
// Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithPrefix sets the key prefix for namespacing store keys.
// Defaults to empty (no prefix).
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}
