package cache

import (
	"context"
	"time"
)

// KV defines the key-value contract with TTL semantics shared by every
// process serving the same buckets.
// Implementations must be safe for concurrent use by multiple goroutines.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// SetIfAbsent stores value only when key is missing or expired and
	// reports whether this call created it. It is a single atomic store
	// operation and the only mutual-exclusion primitive in the system.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Expire resets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

