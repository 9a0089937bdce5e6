// Package cache implements a tiered, smart-TTL caching engine over an
// authoritative external key-value store.
//
// # Engine
//
// A [DistributedCache] keeps a local, advisory entry table in front of a
// [store.Store]. Reads check the local table first, then the store (hits are
// backfilled locally), then an optional per-call fallback whose result is
// persisted at both levels. Writes go to both levels in one call. The local
// table is a pure accelerator: the store remains the sole source of
// cross-process truth, and the engine never assumes the two agree on TTLs.
//
// [DistributedCache.Get] never fails. Store and fallback errors are logged
// and degrade to the next source, bottoming out at a nil result, so callers
// can always distinguish "not cached" (nil, nil) from "cache broken"
// (errors returned by [DistributedCache.Set]). A failing Set always
// propagates: the two levels may disagree afterwards and the caller must
// know.
//
// # Tiers and smart TTLs
//
// Each engine carries a fixed set of [Tier] levels ordered by priority; the
// first is the default. A tier supplies the baseline TTL and an optional
// per-value size limit; a serialized value over the limit is rejected,
// never stored. Effective TTLs adapt per key: frequent access stretches the
// baseline up to 3x, old age shrinks it toward a 10% floor, and the result
// is clamped to the [SmartTTLConfig] bounds.
//
// # Invalidation
//
// Entries may declare dependencies and tags, logical labels indexed by the
// engine. [DistributedCache.InvalidateByDependency] and
// [DistributedCache.InvalidateByTag] remove every key under a label.
// [DistributedCache.InvalidatePattern] removes keys matching a simple glob
// where only `*` is a wildcard, at both levels. [InvalidationRule]s bind a
// pattern (and optionally cascading dependencies) to named trigger events on
// the engine's bus, so domain events like "user:updated" invalidate
// declaratively.
//
// Invalidation does not fence in-flight fallbacks: a fallback that completes
// after its key was invalidated re-persists its result. Callers needing
// stronger ordering must serialize writes themselves.
//
// # Background maintenance
//
// Two loops run per instance: a cleanup loop collecting expired local
// entries, and a refresh loop that gives hot entries near expiry a freshly
// computed TTL, pushing the extension to the store. Both stop on
// [DistributedCache.Shutdown].
//
// # Typed access
//
// Values served locally keep their Go type; values backfilled from the
// store are msgpack bytes. [GetTyped] hides the difference:
//
//	profile, found, err := cache.GetTyped[Profile](ctx, engine, key, nil, nil)
package cache
