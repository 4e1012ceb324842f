package repository

import (
	"context"
	"fmt"

	"loan-predictor/config"
)

// NewCacheRepository builds the outcome cache selected by cfg. It returns a nil
// repository for the "none" driver. The returned close function is never nil.
func NewCacheRepository(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig) (CacheRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "none":
		return nil, noop, nil
	case "memory":
		cache := NewMemoryCache()
		return cache, cache.Close, nil
	case "redis":
		cache := NewRedisCache(redisCfg.Address, redisCfg.Password, redisCfg.DB)
		if err := cache.Ping(ctx); err != nil {
			cache.Close()
			return nil, noop, err
		}
		return cache, cache.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown cache driver %q", cfg.Driver)
}
