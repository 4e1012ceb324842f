package repository

import (
	"context"
	"time"
)

// CacheRepository memoizes prediction outcomes. A miss is (_, false, nil);
// errors are reserved for backend failures.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
