package cache

import "time"

// runCleanup collects expired local entries on a fixed interval. The
// external store enforces its own TTLs and is never touched here. Each pass
// completes before the next tick is considered.
func (c *DistributedCache) runCleanup() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.cleanupPass(time.Now())
		}
	}
}

func (c *DistributedCache) cleanupPass(now time.Time) {
	c.mutex.Lock()
	var removed int
	for key, e := range c.entries {
		if e.expired(now) {
			c.removeFromIndicesLocked(key, e)
			delete(c.entries, key)
			c.memoryUsage -= e.sizeBytes
			removed++
		}
	}
	c.mutex.Unlock()
	if removed > 0 {
		c.log.Debug("cleanup removed %d expired entries", removed)
	}
}

// runRefresh extends hot entries that are close to expiring. Cold entries in
// the same window are left to expire naturally.
func (c *DistributedCache) runRefresh() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.refreshPass(time.Now())
		}
	}
}

func (c *DistributedCache) refreshPass(now time.Time) {
	type extension struct {
		key string
		ttl time.Duration
	}
	var extensions []extension

	c.mutex.Lock()
	for key, e := range c.entries {
		if e.remaining(now) > time.Duration(float64(e.ttl)*refreshWindow) {
			continue
		}
		if e.accessCount <= refreshMinAccessCount {
			continue
		}
		base := e.ttl
		if tier, ok := c.byName[e.tier]; ok {
			base = tier.TTL
		}
		ttl := c.smart.adjust(base, e.accessCount, now.Sub(e.createdAt))
		e.createdAt = now
		e.ttl = ttl
		c.refreshes++
		extensions = append(extensions, extension{key: key, ttl: ttl})
	}
	c.mutex.Unlock()

	// Push the new TTLs to the store outside the lock; a failure leaves the
	// store to expire the key on its old schedule, which is safe.
	for _, ext := range extensions {
		if err := c.st.Expire(c.ctx, ext.key, ext.ttl); err != nil {
			c.log.Warn("refresh expire failed for %s: %v", ext.key, err)
		}
	}
	if len(extensions) > 0 {
		c.log.Debug("refreshed %d hot entries", len(extensions))
	}
}
