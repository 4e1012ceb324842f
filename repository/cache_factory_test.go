package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-predictor/config"
)

func TestNewCacheRepository(t *testing.T) {
	ctx := context.Background()

	cache, closeFn, err := NewCacheRepository(ctx, config.CacheConfig{Driver: "none"}, config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.NoError(t, closeFn())

	cache, closeFn, err = NewCacheRepository(ctx, config.CacheConfig{Driver: "memory"}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, cache)
	assert.NoError(t, closeFn())
	assert.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	cache, closeFn, err = NewCacheRepository(ctx, config.CacheConfig{Driver: "redis"}, config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, cache)
	assert.NoError(t, closeFn())

	_, _, err = NewCacheRepository(ctx, config.CacheConfig{Driver: "memcached"}, config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewCacheRepository_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, _, err = NewCacheRepository(context.Background(), config.CacheConfig{Driver: "redis"}, config.RedisConfig{Address: addr})

	assert.Error(t, err)
}
