package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalFallback(t *testing.T) {
	c, err := NewCache(CacheConfig{LocalGCInterval: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.False(t, IsNotFound(nil))
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	c, err := NewCache(CacheConfig{RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestClose_Local(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)
	assert.NoError(t, Close(c))
	assert.NoError(t, Close(c))
}
