// Package manager wires one DistributedCache per named preset and exposes
// narrow domain sub-APIs that compute fixed-pattern keys and delegate to the
// right instance. A Manager is constructed explicitly and passed where it is
// needed; there is no package-level singleton.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/guildhall/cachekit/cache"
	"github.com/guildhall/cachekit/eventing"
	"github.com/guildhall/cachekit/logger"
	"github.com/guildhall/cachekit/store"
)

var (
	// ErrNotInitialized is returned when a cache is requested before
	// Initialize has run.
	ErrNotInitialized = errors.New("manager: not initialized")
	// ErrUnknownPreset is returned for a preset name outside the table.
	ErrUnknownPreset = errors.New("manager: unknown preset")
)

// Manager owns one DistributedCache per preset over one shared store.
type Manager struct {
	mutex       sync.Mutex
	initialized bool
	busClosed   bool
	st          store.Store
	log         logger.Logger
	bus         eventing.Bus
	presets     []Preset
	rules       []cache.InvalidationRule
	engines     map[string]*cache.DistributedCache
	buses       map[string]eventing.Bus
	subs        []eventing.Subscriber
	engineOpts  []cache.Option
}

// Option configures a Manager.
type Option func(*Manager)

// WithPresets replaces the default preset table.
func WithPresets(presets []Preset) Option {
	return func(m *Manager) { m.presets = presets }
}

// WithRules replaces the default invalidation rule set registered on every
// preset engine.
func WithRules(rules []cache.InvalidationRule) Option {
	return func(m *Manager) { m.rules = rules }
}

// WithEngineOptions passes extra options to every constructed engine, e.g.
// shortened loop intervals in tests.
func WithEngineOptions(opts ...cache.Option) Option {
	return func(m *Manager) { m.engineOpts = opts }
}

// New returns an uninitialized Manager over the shared store.
func New(st store.Store, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		st:      st,
		log:     log.With(map[string]interface{}{"component": "cache-manager"}),
		presets: DefaultPresets(),
		rules:   DefaultRules(),
		engines: make(map[string]*cache.DistributedCache),
		buses:   make(map[string]eventing.Bus),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.bus = eventing.New(log)
	return m
}

// Initialize constructs one engine per preset, registers the shared rule set
// on each, and re-emits every engine's lifecycle events on the manager bus
// with the preset name prefixed. Calling it again is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.initialized {
		return nil
	}
	if m.busClosed {
		// Shutdown closed the previous bus; re-initialization gets a fresh
		// one, so callers must re-fetch Events afterwards.
		m.bus = eventing.New(m.log)
		m.busClosed = false
	}
	for _, preset := range m.presets {
		bus := eventing.New(m.log)
		engine, err := cache.New(ctx, m.st, bus, m.log, cache.Config{
			Name:     preset.Name,
			Tiers:    preset.Tiers,
			SmartTTL: preset.SmartTTL,
		}, m.engineOpts...)
		if err != nil {
			return fmt.Errorf("manager: preset %s: %w", preset.Name, err)
		}
		for _, rule := range m.rules {
			engine.AddInvalidationRule(rule)
		}
		m.wireReemit(preset.Name, bus)
		m.engines[preset.Name] = engine
		m.buses[preset.Name] = bus
	}
	m.initialized = true
	m.log.Info("initialized %d cache presets", len(m.engines))
	return nil
}

func (m *Manager) wireReemit(preset string, bus eventing.Bus) {
	for _, name := range []string{
		eventing.EventSet,
		eventing.EventDelete,
		eventing.EventInvalidate,
		eventing.EventInvalidateDependency,
		eventing.EventInvalidateTag,
	} {
		n := name
		sub := bus.Subscribe(n, func(ctx context.Context, evt eventing.Event) {
			evt.Name = preset + ":" + n
			m.Events().Publish(ctx, evt)
		})
		m.subs = append(m.subs, sub)
	}
}

// Cache returns the engine for a preset name.
func (m *Manager) Cache(preset string) (*cache.DistributedCache, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	engine, ok := m.engines[preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	return engine, nil
}

// Events returns the manager bus carrying preset-prefixed lifecycle events,
// e.g. "user:cache:set". Shutdown closes the bus; after re-initializing,
// call Events again for the replacement.
func (m *Manager) Events() eventing.Bus {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.bus
}

// TriggerInvalidation re-emits a domain event on every preset engine's bus
// so any rule subscribed to it fires.
func (m *Manager) TriggerInvalidation(ctx context.Context, event string, payload any) {
	m.mutex.Lock()
	buses := make([]eventing.Bus, 0, len(m.buses))
	for _, bus := range m.buses {
		buses = append(buses, bus)
	}
	m.mutex.Unlock()
	for _, bus := range buses {
		bus.Publish(ctx, eventing.Event{Name: event, Payload: payload})
	}
}

// InvalidateAll invalidates the `*` pattern on every preset, emptying each
// local table regardless of what the store still holds. Returns the total
// number of keys affected.
func (m *Manager) InvalidateAll(ctx context.Context) int {
	var total int
	for _, engine := range m.snapshot() {
		total += engine.InvalidatePattern(ctx, "*")
	}
	return total
}

// WarmUp pre-populates one preset's engine.
func (m *Manager) WarmUp(ctx context.Context, preset string, entries []cache.WarmupEntry) (int, error) {
	engine, err := m.Cache(preset)
	if err != nil {
		return 0, err
	}
	return engine.WarmUp(ctx, entries), nil
}

// Stats returns a per-preset snapshot of every engine's counters.
func (m *Manager) Stats() map[string]cache.Stats {
	stats := make(map[string]cache.Stats)
	m.mutex.Lock()
	engines := make(map[string]*cache.DistributedCache, len(m.engines))
	for name, engine := range m.engines {
		engines[name] = engine
	}
	m.mutex.Unlock()
	for name, engine := range engines {
		stats[name] = engine.Stats()
	}
	return stats
}

// Shutdown stops and clears every managed engine. Safe to call repeatedly.
func (m *Manager) Shutdown() {
	m.mutex.Lock()
	engines := m.engines
	subs := m.subs
	bus := m.bus
	m.engines = make(map[string]*cache.DistributedCache)
	m.buses = make(map[string]eventing.Bus)
	m.subs = nil
	m.initialized = false
	m.busClosed = true
	m.mutex.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	for _, engine := range engines {
		engine.Shutdown()
	}
	bus.Close()
}

func (m *Manager) snapshot() []*cache.DistributedCache {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	engines := make([]*cache.DistributedCache, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	return engines
}
