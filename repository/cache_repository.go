package repository

import (
	"context"
	"time"
)

// CacheRepository stores rendered estimates keyed by normalized input.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
