package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhall/cachekit/eventing"
	"github.com/guildhall/cachekit/store"
)

func TestInvalidatePatternMatchesOnlyNamespace(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	require.NoError(t, c.Set(ctx, "user:profile:123", "a", nil))
	require.NoError(t, c.Set(ctx, "user:settings:123", "b", nil))
	require.NoError(t, c.Set(ctx, "guild:settings:123", "c", nil))

	count := c.InvalidatePattern(ctx, "user:*")
	assert.Equal(t, 2, count)

	val, _ := c.Get(ctx, "user:profile:123", nil, nil)
	assert.Nil(t, val)
	val, _ = c.Get(ctx, "user:settings:123", nil, nil)
	assert.Nil(t, val)
	val, _ = c.Get(ctx, "guild:settings:123", nil, nil)
	assert.Equal(t, "c", val)
}

func TestInvalidatePatternTreatsDotLiterally(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	require.NoError(t, c.Set(ctx, "host:a.b", "dotted", nil))
	require.NoError(t, c.Set(ctx, "host:axb", "other", nil))

	// The dot is a literal character, not "any character".
	count := c.InvalidatePattern(ctx, "host:a.b")
	assert.Equal(t, 1, count)
	val, _ := c.Get(ctx, "host:axb", nil, nil)
	assert.Equal(t, "other", val)
}

func TestInvalidatePatternCountsKeyAtBothLevelsOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := newTestCache(t, st)

	// k1 lives at both levels; k2 only in the store.
	require.NoError(t, c.Set(ctx, "k1", "v", nil))
	require.NoError(t, st.Set(ctx, "k2", "v", time.Minute))

	assert.Equal(t, 2, c.InvalidatePattern(ctx, "k*"))

	found, _, err := st.Get(ctx, "k2")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateByDependencyRemovesExactlyDeclaredKeys(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	require.NoError(t, c.Set(ctx, "user:profile:1", "a", &SetOptions{Dependencies: []string{"user:1"}}))
	require.NoError(t, c.Set(ctx, "user:settings:1", "b", &SetOptions{Dependencies: []string{"user:1"}}))
	require.NoError(t, c.Set(ctx, "user:profile:2", "c", &SetOptions{Dependencies: []string{"user:2"}}))

	assert.Equal(t, 2, c.InvalidateByDependency(ctx, "user:1"))

	val, _ := c.Get(ctx, "user:profile:2", nil, nil)
	assert.Equal(t, "c", val)
	assert.Equal(t, 1, c.Stats().TotalKeys)
}

func TestInvalidateByTag(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	require.NoError(t, c.Set(ctx, "a", 1, &SetOptions{Tags: []string{"session"}}))
	require.NoError(t, c.Set(ctx, "b", 2, &SetOptions{Tags: []string{"session"}}))
	require.NoError(t, c.Set(ctx, "c", 3, &SetOptions{Tags: []string{"config"}}))

	assert.Equal(t, 2, c.InvalidateByTag(ctx, "session"))
	assert.Equal(t, 0, c.InvalidateByTag(ctx, "session"))
	assert.Equal(t, 1, c.Stats().TotalKeys)
}

func TestInvalidationRuleFiresOnTrigger(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	c.AddInvalidationRule(InvalidationRule{
		Pattern:  "user:*",
		Triggers: []string{"user:updated"},
	})
	require.NoError(t, c.Set(ctx, "user:profile:1", "v", nil))

	c.Bus().Publish(ctx, eventing.Event{Name: "user:updated"})

	val, _ := c.Get(ctx, "user:profile:1", nil, nil)
	assert.Nil(t, val)
}

func TestCascadingRuleInvalidatesDependencies(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	c.AddInvalidationRule(InvalidationRule{
		Pattern:      "leaderboard:*",
		Triggers:     []string{"season:reset"},
		Dependencies: []string{"standings"},
		Cascading:    true,
	})
	require.NoError(t, c.Set(ctx, "leaderboard:global:weekly", "v", nil))
	// Different key shape, same logical data: only the cascade reaches it.
	require.NoError(t, c.Set(ctx, "rank:snapshot", "v", &SetOptions{Dependencies: []string{"standings"}}))

	c.Bus().Publish(ctx, eventing.Event{Name: "season:reset"})

	assert.Equal(t, 0, c.Stats().TotalKeys)
}

func TestMultipleRulesOnSameTrigger(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	c.AddInvalidationRule(InvalidationRule{Pattern: "a:*", Triggers: []string{"boom"}})
	c.AddInvalidationRule(InvalidationRule{Pattern: "b:*", Triggers: []string{"boom"}})
	require.NoError(t, c.Set(ctx, "a:1", "v", nil))
	require.NoError(t, c.Set(ctx, "b:1", "v", nil))

	c.Bus().Publish(ctx, eventing.Event{Name: "boom"})

	assert.Equal(t, 0, c.Stats().TotalKeys)
}

func TestInvalidationEventsPublished(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, nil)

	var got []eventing.Event
	sub := c.Bus().Subscribe(eventing.EventInvalidate, func(ctx context.Context, evt eventing.Event) {
		got = append(got, evt)
	})
	defer sub.Close()

	require.NoError(t, c.Set(ctx, "user:1", "v", nil))
	c.InvalidatePattern(ctx, "user:*")

	require.Len(t, got, 1)
	assert.Equal(t, "user:*", got[0].Key)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, int64(1), c.Stats().Invalidations)
}
