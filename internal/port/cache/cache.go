// Package cache defines the port for short-lived byte values such as rendered
// reports and replayed submission responses.
package cache

import (
	"context"
	"time"
)

// Cache stores encoded values by key. A value written with Set must be
// visible to the next Get on the same key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
