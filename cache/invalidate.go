package cache

import (
	"context"

	"github.com/guildhall/cachekit/eventing"
	"github.com/guildhall/cachekit/store"
)

// InvalidatePattern deletes every key matching a simple-glob pattern (only
// `*` is a wildcard, all other characters match literally) from both the
// local table and the external store. Returns the number of distinct keys
// affected: the deduplicated union of local matches and the store's own key
// listing, so a key present at both levels counts once.
func (c *DistributedCache) InvalidatePattern(ctx context.Context, pattern string) int {
	matcher := store.CompilePattern(pattern)
	affected := make(map[string]struct{})

	c.mutex.Lock()
	for key := range c.entries {
		if matcher.Match(key) {
			affected[key] = struct{}{}
		}
	}
	c.mutex.Unlock()

	keys, err := c.st.Keys(ctx, pattern)
	if err != nil {
		c.log.Error("store key listing failed for pattern %s: %v", pattern, err)
	}
	for _, key := range keys {
		affected[key] = struct{}{}
	}

	for key := range affected {
		c.Delete(ctx, key)
	}

	c.countInvalidation()
	c.publish(ctx, eventing.EventInvalidate, pattern, len(affected))
	return len(affected)
}

// InvalidateByDependency deletes every key that declared the dependency.
func (c *DistributedCache) InvalidateByDependency(ctx context.Context, dep string) int {
	keys := c.indexedKeys(c.deps, dep)
	for _, key := range keys {
		c.Delete(ctx, key)
	}
	c.countInvalidation()
	c.publish(ctx, eventing.EventInvalidateDependency, dep, len(keys))
	return len(keys)
}

// InvalidateByTag deletes every key carrying the tag.
func (c *DistributedCache) InvalidateByTag(ctx context.Context, tag string) int {
	keys := c.indexedKeys(c.tags, tag)
	for _, key := range keys {
		c.Delete(ctx, key)
	}
	c.countInvalidation()
	c.publish(ctx, eventing.EventInvalidateTag, tag, len(keys))
	return len(keys)
}

func (c *DistributedCache) indexedKeys(index map[string]map[string]struct{}, name string) []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	bucket := index[name]
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	return keys
}

// AddInvalidationRule registers a rule and subscribes it to each of its
// triggers on the instance's bus. Multiple rules on the same trigger all
// fire, in no particular order relative to each other.
func (c *DistributedCache) AddInvalidationRule(rule InvalidationRule) {
	c.mutex.Lock()
	c.rules = append(c.rules, rule)
	c.mutex.Unlock()
	for _, trigger := range rule.Triggers {
		r := rule
		sub := c.bus.Subscribe(trigger, func(ctx context.Context, _ eventing.Event) {
			c.applyRule(ctx, r)
		})
		c.mutex.Lock()
		c.subs = append(c.subs, sub)
		c.mutex.Unlock()
	}
}

func (c *DistributedCache) applyRule(ctx context.Context, rule InvalidationRule) {
	c.InvalidatePattern(ctx, rule.Pattern)
	if !rule.Cascading {
		return
	}
	for _, dep := range rule.Dependencies {
		c.InvalidateByDependency(ctx, dep)
	}
}

func (c *DistributedCache) countInvalidation() {
	c.mutex.Lock()
	c.invalidations++
	c.mutex.Unlock()
}
