package cache

import (
	"context"
	"time"
)

// FallbackFunc produces a value for a key on a total cache miss.
type FallbackFunc func(ctx context.Context) (any, error)

// GetOptions controls a single Get call. The zero value selects the default
// tier with no forced refresh.
type GetOptions struct {
	// Tier names the tier used when materializing a local entry from a
	// store hit or a fallback result. Empty selects the default tier.
	Tier string
	// ForceRefresh recomputes via the fallback even on a hit.
	ForceRefresh bool
	// Dependencies and Tags are attached to entries materialized by this
	// Get (store backfill or fallback persistence).
	Dependencies []string
	Tags         []string
}

// SetOptions controls a single Set call. The zero value selects the default
// tier and a smart-computed TTL.
type SetOptions struct {
	// Tier names the target tier. Empty selects the default tier.
	Tier string
	// TTL overrides the smart-computed TTL when positive.
	TTL time.Duration
	// Dependencies are logical labels this entry declares; invalidating a
	// dependency removes every entry that declared it.
	Dependencies []string
	// Tags are a parallel classification axis with the same invalidation
	// mechanics as dependencies.
	Tags []string
}

// WarmupEntry is one key/value pair for WarmUp.
type WarmupEntry struct {
	Key     string
	Value   any
	Options *SetOptions
}

// InvalidationRule is a standing subscription: when any of its trigger
// events fires on the engine's bus, the rule's pattern is invalidated. When
// Cascading is set, each listed dependency is invalidated as well.
type InvalidationRule struct {
	Pattern      string
	Triggers     []string
	Dependencies []string
	Cascading    bool
}

// DefaultCleanupInterval is how often expired local entries are collected.
const DefaultCleanupInterval = time.Minute

// DefaultRefreshInterval is how often hot entries near expiry are given a
// freshly computed TTL.
const DefaultRefreshInterval = 5 * time.Minute

// refreshWindow is the fraction of an entry's TTL below which it becomes a
// refresh candidate.
const refreshWindow = 0.2

// refreshMinAccessCount is the access count an entry must exceed to be
// refreshed instead of left to expire.
const refreshMinAccessCount = 5

type config struct {
	cleanupInterval time.Duration
	refreshInterval time.Duration
}

// Option configures a DistributedCache.
type Option func(*config)

func applyOptions(opts []Option) config {
	cfg := config{
		cleanupInterval: DefaultCleanupInterval,
		refreshInterval: DefaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCleanupInterval sets the expired-entry collection interval.
// Defaults to DefaultCleanupInterval (1 minute).
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) { c.cleanupInterval = d }
}

// WithRefreshInterval sets the hot-entry refresh interval.
// Defaults to DefaultRefreshInterval (5 minutes).
func WithRefreshInterval(d time.Duration) Option {
	return func(c *config) { c.refreshInterval = d }
}
