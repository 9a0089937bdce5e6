package manager

import (
	"context"

	"github.com/guildhall/cachekit/cache"
)

// WithCache wraps fn with read-through caching on engine. The wrapped
// function computes its key from the argument, serves hits from the cache,
// and on a miss invokes fn and persists the result. Composition replaces
// annotation-style caching: the caller decides, per call site, what is
// cached and under which key.
//
//	getUser := manager.WithCache(engine,
//	    func(id string) string { return "user:profile:" + id },
//	    nil,
//	    loadUserFromDB,
//	)
func WithCache[A any, T any](engine *cache.DistributedCache, keyFn func(A) string, opts *cache.GetOptions, fn func(ctx context.Context, arg A) (T, error)) func(ctx context.Context, arg A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		key := keyFn(arg)
		val, found, err := cache.GetTyped[T](ctx, engine, key, func(ctx context.Context) (any, error) {
			return fn(ctx, arg)
		}, opts)
		if err != nil {
			var zero T
			return zero, err
		}
		if !found {
			// The fallback itself failed; surface the result of a direct call.
			return fn(ctx, arg)
		}
		return val, nil
	}
}
