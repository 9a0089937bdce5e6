package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSetGet(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	st := NewRedis(client)
	defer st.Close()

	found, _, err := st.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.Set(ctx, "key", "value", time.Minute))
	found, data, err := st.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	var val string
	require.NoError(t, Decode(data, &val))
	assert.Equal(t, "value", val)
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	st := NewRedis(client)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "key", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	found, _, err := st.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestRedisExpireExtends(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	st := NewRedis(client)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, st.Expire(ctx, "key", time.Hour))
	mr.FastForward(2 * time.Minute)

	found, _, err := st.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestRedisDel(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	st := NewRedis(client)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "key", "value", time.Minute))
	existed, err := st.Del(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, existed)

	existed, err = st.Del(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, existed)
}

func TestRedisKeysPattern(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	st := NewRedis(client)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "user:profile:1", "a", time.Minute))
	require.NoError(t, st.Set(ctx, "user:settings:1", "b", time.Minute))
	require.NoError(t, st.Set(ctx, "guild:settings:1", "c", time.Minute))

	keys, err := st.Keys(ctx, "user:*")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user:profile:1", "user:settings:1"}, keys)
}

func TestRedisKeysMetacharactersAreLiteral(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	st := NewRedis(client)
	defer st.Close()

	// Redis glob specials in keys and patterns must stay literal.
	require.NoError(t, st.Set(ctx, "v[1]", "bracketed", time.Minute))
	require.NoError(t, st.Set(ctx, "v1", "plain", time.Minute))
	require.NoError(t, st.Set(ctx, "v?", "question", time.Minute))

	keys, err := st.Keys(ctx, "v[1]")
	assert.NoError(t, err)
	assert.Equal(t, []string{"v[1]"}, keys)

	keys, err = st.Keys(ctx, "v?")
	assert.NoError(t, err)
	assert.Equal(t, []string{"v?"}, keys)

	keys, err = st.Keys(ctx, "v*")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"v[1]", "v1", "v?"}, keys)
}

func TestRedisPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	a := NewRedis(client, WithPrefix("a"))
	b := NewRedis(client, WithPrefix("b"))

	require.NoError(t, a.Set(ctx, "key", "from-a", time.Minute))

	found, _, err := b.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)

	keys, err := a.Keys(ctx, "*")
	assert.NoError(t, err)
	assert.Equal(t, []string{"key"}, keys)
}
