// pkg/store/memory_store.go

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
)

// MemoryStore is an in-process Store for tests and development. Production
// deployments use VaultStore; this backend keeps the same path semantics so
// the manager behaves identically against either.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (ms *MemoryStore) Put(ctx context.Context, path string, data []byte) error {
	if path == "" {
		return cerr.Mark(cerr.New("path cannot be empty"), pandora_err.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return cerr.Mark(err, pandora_err.ErrConnection)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	ms.records[path] = copied
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cerr.Mark(err, pandora_err.ErrConnection)
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	data, ok := ms.records[path]
	if !ok {
		return nil, cerr.Mark(cerr.Newf("no record at %s", path), pandora_err.ErrNotFound)
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

func (ms *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, cerr.Mark(err, pandora_err.ErrConnection)
	}

	normalized := strings.TrimSuffix(prefix, "/") + "/"

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	seen := make(map[string]struct{})
	for path := range ms.records {
		if !strings.HasPrefix(path, normalized) {
			continue
		}
		rest := strings.TrimPrefix(path, normalized)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			// Deeper subtree: report as "name/" like Vault does.
			seen[rest[:idx+1]] = struct{}{}
		} else {
			seen[rest] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return cerr.Mark(err, pandora_err.ErrConnection)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.records, path)
	return nil
}

func (ms *MemoryStore) Name() string {
	return "memory"
}

// Corrupt flips one byte of the record at path. Test hook for integrity
// verification; returns false when the record does not exist or is empty.
func (ms *MemoryStore) Corrupt(path string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	data, ok := ms.records[path]
	if !ok || len(data) == 0 {
		return false
	}
	data[len(data)/2] ^= 0xff
	return true
}

// Paths returns every stored path, sorted. Test hook.
func (ms *MemoryStore) Paths() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	paths := make([]string, 0, len(ms.records))
	for path := range ms.records {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
