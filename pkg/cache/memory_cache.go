// pkg/cache/memory_cache.go

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

// MemoryCache is an in-process Cache for tests and single-node development.
// Each entry stores its own insertion time and ttl; Get never serves an
// entry past its stored ttl.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[key]
	if !ok {
		return nil, false, nil
	}
	if mc.now().Sub(entry.insertedAt) >= entry.ttl {
		delete(mc.entries, key)
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	mc.entries[key] = memoryEntry{value: copied, insertedAt: mc.now(), ttl: ttl}
	return nil
}

func (mc *MemoryCache) Invalidate(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.entries, key)
	return nil
}

func (mc *MemoryCache) InvalidatePattern(ctx context.Context, prefix string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for key := range mc.entries {
		if strings.HasPrefix(key, prefix) {
			delete(mc.entries, key)
		}
	}
	return nil
}

func (mc *MemoryCache) Ping(ctx context.Context) error {
	return nil
}
