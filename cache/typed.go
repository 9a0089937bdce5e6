package cache

import (
	"context"
	"fmt"

	"github.com/guildhall/cachekit/store"
)

// GetTyped is the type-safe wrapper around [DistributedCache.Get]. Values
// served from the local tier are returned by direct type assertion; values
// backfilled from the external store arrive as msgpack bytes and are decoded
// into T. The found result is false on a total miss.
func GetTyped[T any](ctx context.Context, c *DistributedCache, key string, fallback FallbackFunc, opts *GetOptions) (T, bool, error) {
	var zero T
	val, err := c.Get(ctx, key, fallback, opts)
	if err != nil {
		return zero, false, err
	}
	if val == nil {
		return zero, false, nil
	}
	if typed, ok := val.(T); ok {
		return typed, true, nil
	}
	if data, ok := val.([]byte); ok {
		var result T
		if err := store.Decode(data, &result); err != nil {
			return zero, false, fmt.Errorf("cache: decode %s: %w", key, err)
		}
		return result, true, nil
	}
	return zero, false, fmt.Errorf("cache: cannot convert value of type %T to %T", val, zero)
}
