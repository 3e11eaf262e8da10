// Package cache provides the TTL key/value store that fronts the certificate
// repository. Two backends exist: an in-process map for single-instance
// deployments and Redis for deployments that run several API instances.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented TTL cache. A ttl of zero means no expiry.
type Store interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments the integer stored at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}
