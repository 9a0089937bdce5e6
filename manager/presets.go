package manager

import (
	"time"

	"github.com/guildhall/cachekit/cache"
)

// Preset names. Each preset backs one class of data with its own tier TTLs
// and smart-TTL knobs.
const (
	PresetRealtime    = "realtime"
	PresetUser        = "user"
	PresetGuild       = "guild"
	PresetLeaderboard = "leaderboard"
	PresetGameStats   = "gamestats"
	PresetStatic      = "static"
)

// Tier names shared by every preset: a small in-process tier in front of the
// distributed store tier.
const (
	TierMemory      = "memory"
	TierDistributed = "distributed"
)

func twoTiers(memoryTTL, distributedTTL time.Duration, maxSize int64) []cache.Tier {
	return []cache.Tier{
		{Name: TierMemory, TTL: memoryTTL, MaxSizeBytes: maxSize, Priority: 1},
		{Name: TierDistributed, TTL: distributedTTL, Priority: 2},
	}
}

// Preset is a named, pre-configured cache profile.
type Preset struct {
	Name     string
	Tiers    []cache.Tier
	SmartTTL cache.SmartTTLConfig
}

// DefaultPresets returns the fixed preset table. The exact numbers are
// configuration, not contract, but the relative TTL ordering holds:
// realtime < user/guild < leaderboard/gamestats < static.
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name:  PresetRealtime,
			Tiers: twoTiers(10*time.Second, 30*time.Second, 256<<10),
			SmartTTL: cache.SmartTTLConfig{
				BaseTTL:                   10 * time.Second,
				AccessFrequencyMultiplier: 0.5,
				DataAgeMultiplier:         2.0,
				MinTTL:                    5 * time.Second,
				MaxTTL:                    time.Minute,
			},
		},
		{
			Name:  PresetUser,
			Tiers: twoTiers(5*time.Minute, 15*time.Minute, 1<<20),
			SmartTTL: cache.SmartTTLConfig{
				BaseTTL:                   5 * time.Minute,
				AccessFrequencyMultiplier: 0.1,
				DataAgeMultiplier:         0.05,
				MinTTL:                    time.Minute,
				MaxTTL:                    time.Hour,
			},
		},
		{
			Name:  PresetGuild,
			Tiers: twoTiers(10*time.Minute, 30*time.Minute, 2<<20),
			SmartTTL: cache.SmartTTLConfig{
				BaseTTL:                   10 * time.Minute,
				AccessFrequencyMultiplier: 0.1,
				DataAgeMultiplier:         0.05,
				MinTTL:                    2 * time.Minute,
				MaxTTL:                    2 * time.Hour,
			},
		},
		{
			Name:  PresetLeaderboard,
			Tiers: twoTiers(15*time.Minute, time.Hour, 4<<20),
			SmartTTL: cache.SmartTTLConfig{
				BaseTTL:                   15 * time.Minute,
				AccessFrequencyMultiplier: 0.2,
				DataAgeMultiplier:         0.1,
				MinTTL:                    5 * time.Minute,
				MaxTTL:                    4 * time.Hour,
			},
		},
		{
			Name:  PresetGameStats,
			Tiers: twoTiers(30*time.Minute, 2*time.Hour, 4<<20),
			SmartTTL: cache.SmartTTLConfig{
				BaseTTL:                   30 * time.Minute,
				AccessFrequencyMultiplier: 0.2,
				DataAgeMultiplier:         0.05,
				MinTTL:                    10 * time.Minute,
				MaxTTL:                    6 * time.Hour,
			},
		},
		{
			Name:  PresetStatic,
			Tiers: twoTiers(2*time.Hour, 24*time.Hour, 8<<20),
			SmartTTL: cache.SmartTTLConfig{
				BaseTTL:                   2 * time.Hour,
				AccessFrequencyMultiplier: 0.05,
				DataAgeMultiplier:         0.01,
				MinTTL:                    30 * time.Minute,
				MaxTTL:                    48 * time.Hour,
			},
		},
	}
}

// DefaultRules is the global invalidation rule set registered on every
// preset engine. Triggers are logical domain events fired through
// Manager.TriggerInvalidation.
func DefaultRules() []cache.InvalidationRule {
	return []cache.InvalidationRule{
		{
			Pattern:  "user:*",
			Triggers: []string{"user:updated", "user:deleted"},
		},
		{
			Pattern:  "guild:*",
			Triggers: []string{"guild:updated", "guild:deleted"},
		},
		{
			Pattern:      "leaderboard:*",
			Triggers:     []string{"score:updated", "season:reset"},
			Dependencies: []string{"leaderboard"},
			Cascading:    true,
		},
		{
			Pattern:  "gamestats:*",
			Triggers: []string{"game:completed"},
		},
	}
}
