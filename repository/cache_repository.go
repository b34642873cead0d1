package repository

import (
	"context"
	"time"
)

// CacheRepository stores short-lived string values. A ttl of zero keeps the
// value until it is overwritten.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
