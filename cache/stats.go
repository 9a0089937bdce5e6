package cache

import "time"

// Stats is an immutable snapshot of an instance's counters. Mutating a
// snapshot has no effect on the live instance.
type Stats struct {
	Hits              int64
	Misses            int64
	HitRate           float64
	TotalKeys         int
	MemoryUsage       int64
	AverageAccessTime time.Duration
	Invalidations     int64
	Refreshes         int64
	TierDistribution  map[string]int
}

// Stats returns a snapshot of the instance's counters. HitRate is recomputed
// per call and is 0 when there has been no traffic.
func (c *DistributedCache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s := Stats{
		Hits:             c.hits,
		Misses:           c.misses,
		TotalKeys:        len(c.entries),
		MemoryUsage:      c.memoryUsage,
		Invalidations:    c.invalidations,
		Refreshes:        c.refreshes,
		TierDistribution: make(map[string]int, len(c.tiers)),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	if c.accessSamples > 0 {
		s.AverageAccessTime = c.accessTotal / time.Duration(c.accessSamples)
	}
	for _, e := range c.entries {
		s.TierDistribution[e.tier]++
	}
	return s
}
