package cache

import "time"

// entry is the engine's internal record for one cached key. It is owned by
// exactly one DistributedCache and only touched with the engine mutex held.
type entry struct {
	value        any
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int64
	ttl          time.Duration
	tier         string
	sizeBytes    int64
	dependencies map[string]struct{}
	tags         map[string]struct{}
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// remaining returns how much of the entry's TTL is left at now. Negative
// once the entry has expired.
func (e *entry) remaining(now time.Time) time.Duration {
	return e.createdAt.Add(e.ttl).Sub(now)
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
