package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "key1", "value1", 0)
	require.NoError(t, err)

	v, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "ttl_key", "val", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "ttl_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	_ = c.Del(ctx, "k")
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "owner", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok) // already held
}

func TestZSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "z", 100, "alice"))
	require.NoError(t, c.ZAdd(ctx, "z", 200, "bob"))
	require.NoError(t, c.ZAdd(ctx, "z", 50, "carol"))

	members, err := c.ZRevRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice", "carol"}, members)

	score, err := c.ZScore(ctx, "z", "alice")
	require.NoError(t, err)
	assert.Equal(t, float64(100), score)
}

func TestZSetTies(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "z", 1, "a"))
	require.NoError(t, c.ZAdd(ctx, "z", 1, "a"))
	members, err := c.ZRevRange(ctx, "z", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, members)

	_, err = c.ZScore(ctx, "z", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	members, err = c.ZRevRange(ctx, "empty", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestDelIfEqual(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "token-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := c.DelIfEqual(ctx, "lock", "token-b")
	require.NoError(t, err)
	assert.False(t, deleted, "other owner must not release")

	deleted, err = c.DelIfEqual(ctx, "lock", "token-a")
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, _ := c.Exists(ctx, "lock")
	assert.False(t, exists)
}

func TestExpire(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Expire(ctx, "none", time.Second), ErrNotFound)
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Expire(ctx, "k", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDel_SortedSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.ZAdd(ctx, "rank", 3, "a"))
	require.NoError(t, c.Del(ctx, "rank"))

	members, err := c.ZRevRange(ctx, "rank", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestZSet_RedisOrdering(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "z", 2, "alpha"))
	require.NoError(t, c.ZAdd(ctx, "z", 2, "charlie"))
	require.NoError(t, c.ZAdd(ctx, "z", 2, "bravo"))
	require.NoError(t, c.ZAdd(ctx, "z", 5, "delta"))

	members, err := c.ZRevRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"delta", "charlie", "bravo", "alpha"}, members, "ties in reverse member order")

	members, err = c.ZRevRange(ctx, "z", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo", "alpha"}, members)

	members, err = c.ZRevRange(ctx, "z", 3, 1)
	require.NoError(t, err)
	assert.Empty(t, members)

	// Re-scoring moves the member.
	require.NoError(t, c.ZAdd(ctx, "z", 9, "alpha"))
	members, err = c.ZRevRange(ctx, "z", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, members)
}

func TestExpire_NonPositiveDeletes(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Expire(ctx, "k", 0))
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClose_Twice(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	c.Close()
	c.Close()
}

func TestZRem(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.ZAdd(ctx, "z", 1, "a"))
	require.NoError(t, c.ZAdd(ctx, "z", 2, "b"))

	require.NoError(t, c.ZRem(ctx, "z", "b"))
	require.NoError(t, c.ZRem(ctx, "z", "missing"))
	members, err := c.ZRevRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, members)

	require.NoError(t, c.ZRem(ctx, "z", "a"))
	exists, err := c.Exists(ctx, "z")
	require.NoError(t, err)
	assert.False(t, exists, "emptied set is dropped")
}
