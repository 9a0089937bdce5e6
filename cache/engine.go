package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/guildhall/cachekit/eventing"
	"github.com/guildhall/cachekit/logger"
	"github.com/guildhall/cachekit/store"
)

var (
	// ErrNoTiers is returned by New when the config names no tiers.
	ErrNoTiers = errors.New("cache: at least one tier is required")
	// ErrUnknownTier is returned by Set when the named tier does not exist.
	ErrUnknownTier = errors.New("cache: unknown tier")
	// ErrValueTooLarge is returned by Set when a serialized value exceeds
	// its tier's size limit. Nothing is stored.
	ErrValueTooLarge = errors.New("cache: value exceeds tier size limit")
)

// Config describes one DistributedCache instance.
type Config struct {
	// Name identifies the instance in logs and events.
	Name string
	// Tiers lists the instance's cache levels. Required. The tier with the
	// lowest Priority is the default.
	Tiers []Tier
	// SmartTTL holds the adaptive-TTL knobs.
	SmartTTL SmartTTLConfig
}

// DistributedCache layers a local, advisory acceleration tier with adaptive
// expiration, dependency/tag invalidation, and declarative invalidation
// rules over an authoritative external store. The local entry table is never
// assumed to agree with the store's own TTL clock; the store remains the
// sole source of cross-process truth.
type DistributedCache struct {
	name    string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
	st      store.Store
	bus     eventing.Bus
	ownsBus bool
	log     logger.Logger
	tiers   []Tier
	byName  map[string]Tier
	smart   SmartTTLConfig
	cfg     config
	flight  singleflight.Group

	mutex   sync.Mutex
	entries map[string]*entry
	deps    map[string]map[string]struct{}
	tags    map[string]map[string]struct{}
	rules   []InvalidationRule
	subs    []eventing.Subscriber

	hits          int64
	misses        int64
	invalidations int64
	refreshes     int64
	memoryUsage   int64
	accessSamples int64
	accessTotal   time.Duration
}

// New constructs a DistributedCache over the given store. When bus is nil an
// in-process bus is created and owned (and closed) by the instance. The
// background cleanup and refresh loops start immediately and stop only via
// Shutdown or cancellation of the parent context.
func New(parent context.Context, st store.Store, bus eventing.Bus, log logger.Logger, cfg Config, opts ...Option) (*DistributedCache, error) {
	if len(cfg.Tiers) == 0 {
		return nil, ErrNoTiers
	}
	ctx, cancel := context.WithCancel(parent)
	tiers := sortTiers(cfg.Tiers)
	byName := make(map[string]Tier, len(tiers))
	for _, tier := range tiers {
		byName[tier.Name] = tier
	}
	ownsBus := bus == nil
	if ownsBus {
		bus = eventing.New(log)
	}
	c := &DistributedCache{
		name:    cfg.Name,
		ctx:     ctx,
		cancel:  cancel,
		st:      st,
		bus:     bus,
		ownsBus: ownsBus,
		log:     log.With(map[string]interface{}{"cache": cfg.Name}),
		tiers:   tiers,
		byName:  byName,
		smart:   cfg.SmartTTL,
		cfg:     applyOptions(opts),
		entries: make(map[string]*entry),
		deps:    make(map[string]map[string]struct{}),
		tags:    make(map[string]map[string]struct{}),
	}
	c.wg.Add(2)
	go c.runCleanup()
	go c.runRefresh()
	return c, nil
}

// Name returns the instance name.
func (c *DistributedCache) Name() string {
	return c.name
}

// Bus returns the instance's event bus. Lifecycle events are published on it
// and invalidation rules subscribe to their triggers on it.
func (c *DistributedCache) Bus() eventing.Bus {
	return c.bus
}

// DefaultTier returns the highest-precedence tier.
func (c *DistributedCache) DefaultTier() Tier {
	return c.tiers[0]
}

func (c *DistributedCache) resolveTier(name string) (Tier, error) {
	if name == "" {
		return c.tiers[0], nil
	}
	tier, ok := c.byName[name]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return tier, nil
}

// Get returns the cached value for key, consulting the local tier first,
// then the external store, then the fallback. Get never fails: store and
// fallback errors are logged and degrade to the next source, bottoming out
// at a nil result. A nil result with a nil error means "not cached".
func (c *DistributedCache) Get(ctx context.Context, key string, fallback FallbackFunc, opts *GetOptions) (any, error) {
	start := time.Now()
	defer func() {
		c.recordAccess(time.Since(start))
	}()
	if opts == nil {
		opts = &GetOptions{}
	}

	if opts.ForceRefresh && fallback != nil {
		return c.computeAndStore(ctx, key, fallback, opts), nil
	}

	now := time.Now()
	c.mutex.Lock()
	if e, ok := c.entries[key]; ok && !e.expired(now) {
		e.lastAccessed = now
		e.accessCount++
		c.hits++
		val := e.value
		c.mutex.Unlock()
		return val, nil
	}
	c.mutex.Unlock()

	found, data, err := c.st.Get(ctx, key)
	if err != nil {
		c.log.Error("store get failed for %s: %v", key, err)
		if fallback != nil {
			val, ferr := fallback(ctx)
			if ferr == nil {
				return val, nil
			}
			c.log.Error("fallback failed for %s: %v", key, ferr)
		}
		return nil, nil
	}
	if found {
		c.backfill(key, data, opts)
		return data, nil
	}

	if fallback == nil {
		c.countMiss()
		return nil, nil
	}
	c.countMiss()
	return c.computeAndStore(ctx, key, fallback, opts), nil
}

// computeAndStore runs the fallback (deduplicated per key across concurrent
// callers) and persists the result at both levels. Failures are logged, not
// returned: a failed fallback yields nil, a failed persist still yields the
// computed value.
func (c *DistributedCache) computeAndStore(ctx context.Context, key string, fallback FallbackFunc, opts *GetOptions) any {
	val, err, _ := c.flight.Do(key, func() (any, error) {
		return fallback(ctx)
	})
	if err != nil {
		c.log.Error("fallback failed for %s: %v", key, err)
		return nil
	}
	setOpts := &SetOptions{
		Tier:         opts.Tier,
		Dependencies: opts.Dependencies,
		Tags:         opts.Tags,
	}
	if err := c.Set(ctx, key, val, setOpts); err != nil {
		c.log.Error("persist after fallback failed for %s: %v", key, err)
	}
	return val
}

// backfill materializes a local entry for a key found only in the external
// store. The serialized bytes are kept as the local value; typed callers
// decode them via GetTyped.
func (c *DistributedCache) backfill(key string, data []byte, opts *GetOptions) {
	tier, err := c.resolveTier(opts.Tier)
	if err != nil {
		c.log.Warn("backfill for %s: %v, using default tier", key, err)
		tier = c.tiers[0]
	}
	now := time.Now()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ttl := c.smartTTLLocked(key, tier.TTL, now)
	e := &entry{
		value:        data,
		createdAt:    now,
		lastAccessed: now,
		accessCount:  1,
		ttl:          ttl,
		tier:         tier.Name,
		sizeBytes:    int64(len(data)),
		dependencies: toSet(opts.Dependencies),
		tags:         toSet(opts.Tags),
	}
	if prev, ok := c.entries[key]; ok {
		c.removeFromIndicesLocked(key, prev)
		c.memoryUsage -= prev.sizeBytes
	}
	c.entries[key] = e
	c.addToIndicesLocked(key, e)
	c.memoryUsage += e.sizeBytes
	c.hits++
}

// Set stores a value at both levels under the resolved tier. The TTL is the
// explicit override when given, otherwise smart-computed from the tier
// baseline. A serialized value larger than the tier's limit is rejected and
// nothing is stored. A store write failure is logged and returned; the
// caller must know the two levels may now disagree.
func (c *DistributedCache) Set(ctx context.Context, key string, value any, opts *SetOptions) error {
	if opts == nil {
		opts = &SetOptions{}
	}
	tier, err := c.resolveTier(opts.Tier)
	if err != nil {
		return err
	}
	data, err := store.Encode(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	size := int64(len(data))
	if tier.MaxSizeBytes > 0 && size > tier.MaxSizeBytes {
		return fmt.Errorf("%w: key %s is %d bytes, tier %s allows %d",
			ErrValueTooLarge, key, size, tier.Name, tier.MaxSizeBytes)
	}

	now := time.Now()
	c.mutex.Lock()
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.smartTTLLocked(key, tier.TTL, now)
	}
	if prev, ok := c.entries[key]; ok {
		c.removeFromIndicesLocked(key, prev)
		c.memoryUsage -= prev.sizeBytes
	}
	e := &entry{
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		ttl:          ttl,
		tier:         tier.Name,
		sizeBytes:    size,
		dependencies: toSet(opts.Dependencies),
		tags:         toSet(opts.Tags),
	}
	c.entries[key] = e
	c.addToIndicesLocked(key, e)
	c.memoryUsage += size
	c.mutex.Unlock()

	if err := c.st.Set(ctx, key, value, ttl); err != nil {
		c.log.Error("store set failed for %s: %v", key, err)
		return fmt.Errorf("cache: store set %s: %w", key, err)
	}
	c.publish(ctx, eventing.EventSet, key, 1)
	return nil
}

// Delete removes key from both levels, reporting whether either level held
// it. A store failure is logged and treated as "not found" there.
func (c *DistributedCache) Delete(ctx context.Context, key string) bool {
	c.mutex.Lock()
	e, localOK := c.entries[key]
	if localOK {
		c.removeFromIndicesLocked(key, e)
		delete(c.entries, key)
		c.memoryUsage -= e.sizeBytes
	}
	c.mutex.Unlock()

	storeOK, err := c.st.Del(ctx, key)
	if err != nil {
		c.log.Error("store del failed for %s: %v", key, err)
		storeOK = false
	}
	if !localOK && !storeOK {
		return false
	}
	c.publish(ctx, eventing.EventDelete, key, 1)
	return true
}

// WarmUp pre-populates the cache sequentially. A failing entry is logged and
// skipped; the batch continues. Returns the number of entries stored.
func (c *DistributedCache) WarmUp(ctx context.Context, entries []WarmupEntry) int {
	var stored int
	for _, we := range entries {
		if err := c.Set(ctx, we.Key, we.Value, we.Options); err != nil {
			c.log.Warn("warmup skipped %s: %v", we.Key, err)
			continue
		}
		stored++
	}
	return stored
}

// Shutdown stops the background loops, cancels rule subscriptions, and
// clears all local state. Safe to call more than once.
func (c *DistributedCache) Shutdown() {
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
		c.mutex.Lock()
		subs := c.subs
		c.subs = nil
		c.rules = nil
		c.entries = make(map[string]*entry)
		c.deps = make(map[string]map[string]struct{})
		c.tags = make(map[string]map[string]struct{})
		c.memoryUsage = 0
		c.mutex.Unlock()
		for _, sub := range subs {
			sub.Close()
		}
		if c.ownsBus {
			c.bus.Close()
		}
	})
}

// smartTTLLocked computes the adaptive TTL for key against the given tier
// baseline. The engine mutex must be held. With no prior entry the baseline
// is returned clamped.
func (c *DistributedCache) smartTTLLocked(key string, base time.Duration, now time.Time) time.Duration {
	e, ok := c.entries[key]
	if !ok {
		return c.smart.clamp(base)
	}
	return c.smart.adjust(base, e.accessCount, now.Sub(e.createdAt))
}

func (c *DistributedCache) addToIndicesLocked(key string, e *entry) {
	for dep := range e.dependencies {
		if c.deps[dep] == nil {
			c.deps[dep] = make(map[string]struct{})
		}
		c.deps[dep][key] = struct{}{}
	}
	for tag := range e.tags {
		if c.tags[tag] == nil {
			c.tags[tag] = make(map[string]struct{})
		}
		c.tags[tag][key] = struct{}{}
	}
}

// removeFromIndicesLocked prunes key from every bucket it belongs to. An
// index bucket never references a key absent from the entry table, and an
// emptied bucket is removed rather than left dangling.
func (c *DistributedCache) removeFromIndicesLocked(key string, e *entry) {
	for dep := range e.dependencies {
		if bucket, ok := c.deps[dep]; ok {
			delete(bucket, key)
			if len(bucket) == 0 {
				delete(c.deps, dep)
			}
		}
	}
	for tag := range e.tags {
		if bucket, ok := c.tags[tag]; ok {
			delete(bucket, key)
			if len(bucket) == 0 {
				delete(c.tags, tag)
			}
		}
	}
}

func (c *DistributedCache) countMiss() {
	c.mutex.Lock()
	c.misses++
	c.mutex.Unlock()
}

func (c *DistributedCache) recordAccess(d time.Duration) {
	c.mutex.Lock()
	c.accessSamples++
	c.accessTotal += d
	c.mutex.Unlock()
}

func (c *DistributedCache) publish(ctx context.Context, name, key string, count int) {
	c.bus.Publish(ctx, eventing.Event{Name: name, Key: key, Count: count})
}
