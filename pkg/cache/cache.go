// pkg/cache/cache.go

// Package cache provides the TTL-bounded payload cache in front of the
// backing store. The cache is a pure performance optimization: a miss or a
// cache backend failure always falls back to the store, and running without
// a cache at all degrades the manager to store-only mode without failing.
package cache

import (
	"context"
	"time"
)

// Cache is the payload cache interface. Values are opaque bytes (the
// manager stores decrypted payload JSON). All implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the cached value for the key. The bool reports a hit; an
	// expired or missing entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value with the given ttl. An entry is never served past
	// its own stored ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes the entry for the key. Called synchronously on
	// every mutating operation for that key.
	Invalidate(ctx context.Context, key string) error

	// InvalidatePattern removes every entry whose key starts with prefix.
	InvalidatePattern(ctx context.Context, prefix string) error

	// Ping reports backend reachability.
	Ping(ctx context.Context) error
}
