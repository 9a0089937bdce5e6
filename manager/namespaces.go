package manager

import (
	"context"
	"fmt"

	"github.com/guildhall/cachekit/cache"
)

// namespace is the shared plumbing behind the domain sub-APIs. Keys follow
// the fixed pattern "<domain>:<kind>:<id>", every entry declares the domain
// dependency "<domain>:<id>", and entries carry the domain name as a tag.
type namespace struct {
	m      *Manager
	preset string
	domain string
}

func (n namespace) key(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", n.domain, kind, id)
}

func (n namespace) dep(id string) string {
	return fmt.Sprintf("%s:%s", n.domain, id)
}

func (n namespace) get(ctx context.Context, kind, id string, fallback cache.FallbackFunc, extraDeps ...string) (any, error) {
	engine, err := n.m.Cache(n.preset)
	if err != nil {
		return nil, err
	}
	return engine.Get(ctx, n.key(kind, id), fallback, &cache.GetOptions{
		Dependencies: append([]string{n.dep(id)}, extraDeps...),
		Tags:         []string{n.domain},
	})
}

func (n namespace) set(ctx context.Context, kind, id string, value any, extraDeps ...string) error {
	engine, err := n.m.Cache(n.preset)
	if err != nil {
		return err
	}
	return engine.Set(ctx, n.key(kind, id), value, &cache.SetOptions{
		Dependencies: append([]string{n.dep(id)}, extraDeps...),
		Tags:         []string{n.domain},
	})
}

// invalidate removes every key sharing the domain dependency for id.
func (n namespace) invalidate(ctx context.Context, id string) (int, error) {
	engine, err := n.m.Cache(n.preset)
	if err != nil {
		return 0, err
	}
	return engine.InvalidateByDependency(ctx, n.dep(id)), nil
}

// invalidateKind deletes exactly one key.
func (n namespace) invalidateKind(ctx context.Context, kind, id string) (bool, error) {
	engine, err := n.m.Cache(n.preset)
	if err != nil {
		return false, err
	}
	return engine.Delete(ctx, n.key(kind, id)), nil
}

// UserCache is the user-domain sub-API.
type UserCache struct{ ns namespace }

// User returns the user-domain sub-API.
func (m *Manager) User() UserCache {
	return UserCache{ns: namespace{m: m, preset: PresetUser, domain: "user"}}
}

func (u UserCache) GetProfile(ctx context.Context, userID string, fallback cache.FallbackFunc) (any, error) {
	return u.ns.get(ctx, "profile", userID, fallback)
}

func (u UserCache) SetProfile(ctx context.Context, userID string, profile any) error {
	return u.ns.set(ctx, "profile", userID, profile)
}

func (u UserCache) GetSettings(ctx context.Context, userID string, fallback cache.FallbackFunc) (any, error) {
	return u.ns.get(ctx, "settings", userID, fallback)
}

func (u UserCache) SetSettings(ctx context.Context, userID string, settings any) error {
	return u.ns.set(ctx, "settings", userID, settings)
}

// Invalidate removes every cached key for the user. InvalidateProfile and
// friends remove a single kind.
func (u UserCache) Invalidate(ctx context.Context, userID string) (int, error) {
	return u.ns.invalidate(ctx, userID)
}

func (u UserCache) InvalidateProfile(ctx context.Context, userID string) (bool, error) {
	return u.ns.invalidateKind(ctx, "profile", userID)
}

func (u UserCache) InvalidateSettings(ctx context.Context, userID string) (bool, error) {
	return u.ns.invalidateKind(ctx, "settings", userID)
}

// GuildCache is the guild-domain sub-API.
type GuildCache struct{ ns namespace }

// Guild returns the guild-domain sub-API.
func (m *Manager) Guild() GuildCache {
	return GuildCache{ns: namespace{m: m, preset: PresetGuild, domain: "guild"}}
}

func (g GuildCache) GetSettings(ctx context.Context, guildID string, fallback cache.FallbackFunc) (any, error) {
	return g.ns.get(ctx, "settings", guildID, fallback)
}

func (g GuildCache) SetSettings(ctx context.Context, guildID string, settings any) error {
	return g.ns.set(ctx, "settings", guildID, settings)
}

func (g GuildCache) GetMembers(ctx context.Context, guildID string, fallback cache.FallbackFunc) (any, error) {
	return g.ns.get(ctx, "members", guildID, fallback)
}

func (g GuildCache) SetMembers(ctx context.Context, guildID string, members any) error {
	return g.ns.set(ctx, "members", guildID, members)
}

func (g GuildCache) Invalidate(ctx context.Context, guildID string) (int, error) {
	return g.ns.invalidate(ctx, guildID)
}

func (g GuildCache) InvalidateSettings(ctx context.Context, guildID string) (bool, error) {
	return g.ns.invalidateKind(ctx, "settings", guildID)
}

// LeaderboardCache is the leaderboard-domain sub-API. Entries also declare
// the coarse "leaderboard" dependency so season resets can cascade.
type LeaderboardCache struct{ ns namespace }

// Leaderboard returns the leaderboard-domain sub-API.
func (m *Manager) Leaderboard() LeaderboardCache {
	return LeaderboardCache{ns: namespace{m: m, preset: PresetLeaderboard, domain: "leaderboard"}}
}

func (l LeaderboardCache) Get(ctx context.Context, board, period string, fallback cache.FallbackFunc) (any, error) {
	return l.ns.get(ctx, board, period, fallback, "leaderboard")
}

func (l LeaderboardCache) Set(ctx context.Context, board, period string, entries any) error {
	return l.ns.set(ctx, board, period, entries, "leaderboard")
}

func (l LeaderboardCache) Invalidate(ctx context.Context, board string) (int, error) {
	return l.ns.invalidate(ctx, board)
}

func (l LeaderboardCache) InvalidatePeriod(ctx context.Context, board, period string) (bool, error) {
	return l.ns.invalidateKind(ctx, board, period)
}

// GameStatsCache is the per-game player statistics sub-API.
type GameStatsCache struct{ ns namespace }

// GameStats returns the game-statistics sub-API.
func (m *Manager) GameStats() GameStatsCache {
	return GameStatsCache{ns: namespace{m: m, preset: PresetGameStats, domain: "gamestats"}}
}

func (g GameStatsCache) Get(ctx context.Context, game, userID string, fallback cache.FallbackFunc) (any, error) {
	return g.ns.get(ctx, game, userID, fallback)
}

func (g GameStatsCache) Set(ctx context.Context, game, userID string, stats any) error {
	return g.ns.set(ctx, game, userID, stats)
}

func (g GameStatsCache) Invalidate(ctx context.Context, userID string) (int, error) {
	return g.ns.invalidate(ctx, userID)
}

func (g GameStatsCache) InvalidateGame(ctx context.Context, game, userID string) (bool, error) {
	return g.ns.invalidateKind(ctx, game, userID)
}

// SystemCache holds long-lived configuration-style values on the static
// preset. Keys follow "system:<name>".
type SystemCache struct {
	m *Manager
}

// System returns the system-data sub-API.
func (m *Manager) System() SystemCache {
	return SystemCache{m: m}
}

func (s SystemCache) key(name string) string {
	return "system:" + name
}

func (s SystemCache) Get(ctx context.Context, name string, fallback cache.FallbackFunc) (any, error) {
	engine, err := s.m.Cache(PresetStatic)
	if err != nil {
		return nil, err
	}
	return engine.Get(ctx, s.key(name), fallback, &cache.GetOptions{Tags: []string{"system"}})
}

func (s SystemCache) Set(ctx context.Context, name string, value any) error {
	engine, err := s.m.Cache(PresetStatic)
	if err != nil {
		return err
	}
	return engine.Set(ctx, s.key(name), value, &cache.SetOptions{Tags: []string{"system"}})
}

func (s SystemCache) Invalidate(ctx context.Context, name string) (bool, error) {
	engine, err := s.m.Cache(PresetStatic)
	if err != nil {
		return false, err
	}
	return engine.Delete(ctx, s.key(name)), nil
}

// RealtimeCache holds seconds-scale presence and session data.
type RealtimeCache struct{ ns namespace }

// Realtime returns the realtime sub-API.
func (m *Manager) Realtime() RealtimeCache {
	return RealtimeCache{ns: namespace{m: m, preset: PresetRealtime, domain: "realtime"}}
}

func (r RealtimeCache) Get(ctx context.Context, channel, id string, fallback cache.FallbackFunc) (any, error) {
	return r.ns.get(ctx, channel, id, fallback)
}

func (r RealtimeCache) Set(ctx context.Context, channel, id string, value any) error {
	return r.ns.set(ctx, channel, id, value)
}

func (r RealtimeCache) Invalidate(ctx context.Context, id string) (int, error) {
	return r.ns.invalidate(ctx, id)
}
