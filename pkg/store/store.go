// pkg/store/store.go

// Package store abstracts the backing key-value store holding encrypted
// payloads, metadata records, audit events, and backups.
//
// Record layout under the mount:
//
//	data/<secret_id>/<checksum>  encrypted payload JSON, content-addressed
//	metadata/<secret_id>         plaintext metadata JSON
//	audit/<timestamp>-<uuid>     audit events
//	backups/<timestamp>          metadata index snapshots
//
// Writes are ordered data-record-first, metadata-pointer-last: readers only
// ever trust the metadata record, so a crash between the two writes leaves
// an orphaned blob, never a dangling pointer.
package store

import "context"

// Store is the universal interface over the backing KV store. All
// implementations must be safe for concurrent use and honor context
// cancellation.
type Store interface {
	// Put stores raw bytes at the given path, overwriting any existing record.
	Put(ctx context.Context, path string, data []byte) error

	// Get retrieves the bytes at path. Returns pandora_err.ErrNotFound when
	// no record exists, pandora_err.ErrConnection when the backend is
	// unreachable.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns the child names directly under the prefix, sorted.
	// Names of deeper subtrees carry a trailing "/". An empty result is not
	// an error.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the record at path. Idempotent: deleting a missing
	// record is not an error.
	Delete(ctx context.Context, path string) error

	// Name returns the backend type, e.g. "vault" or "memory".
	Name() string
}
