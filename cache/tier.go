package cache

import (
	"math"
	"sort"
	"time"
)

// Tier is a named cache level with its own TTL baseline and an optional
// per-value size limit. Tiers are ordered ascending by priority; the tier
// with the lowest priority value is the default for writes that do not name
// one.
type Tier struct {
	Name         string
	TTL          time.Duration
	MaxSizeBytes int64 // 0 means unlimited
	Priority     int
}

// SmartTTLConfig holds the knobs for adaptive TTL computation. A frequently
// accessed key earns up to 3x its base TTL; a key that has lived a long time
// decays toward a floor of 10% of base. The two effects compose
// multiplicatively and the result is always clamped to [MinTTL, MaxTTL].
type SmartTTLConfig struct {
	BaseTTL                   time.Duration
	AccessFrequencyMultiplier float64
	DataAgeMultiplier         float64
	MinTTL                    time.Duration
	MaxTTL                    time.Duration
}

const maxAccessFactor = 3.0

const minAgeFactor = 0.1

func sortTiers(tiers []Tier) []Tier {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

func (c SmartTTLConfig) clamp(ttl time.Duration) time.Duration {
	if ttl < c.MinTTL {
		return c.MinTTL
	}
	if c.MaxTTL > 0 && ttl > c.MaxTTL {
		return c.MaxTTL
	}
	return ttl
}

// adjust computes the adaptive TTL for an entry with the given access count
// and age. The base TTL is the entry's tier baseline.
func (c SmartTTLConfig) adjust(base time.Duration, accessCount int64, age time.Duration) time.Duration {
	accessFactor := math.Min(float64(accessCount)*c.AccessFrequencyMultiplier, maxAccessFactor)
	ageDays := age.Hours() / 24
	ageFactor := math.Max(1-ageDays*c.DataAgeMultiplier, minAgeFactor)
	return c.clamp(time.Duration(float64(base) * accessFactor * ageFactor))
}
