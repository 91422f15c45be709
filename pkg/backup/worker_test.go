// pkg/backup/worker_test.go

package backup

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/crypto"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/secrets"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T) (*Worker, *secrets.Manager, *store.MemoryStore, *audit.Ledger) {
	t.Helper()
	ms := store.NewMemoryStore()
	ledger := audit.NewLedger(nil)
	engine, err := crypto.NewEngine(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	manager, err := secrets.NewManager(secrets.Options{
		Store:  ms,
		Engine: engine,
		Ledger: ledger,
	})
	require.NoError(t, err)
	worker := NewWorker(manager, ms, ledger, "test", 24*time.Hour, 30)
	return worker, manager, ms, ledger
}

func TestSnapshotOnceWritesMetadataIndex(t *testing.T) {
	ctx := context.Background()
	worker, manager, _, _ := newTestWorker(t)

	_, err := manager.StoreSecret(ctx, "db-creds", map[string]interface{}{"password": "sensitive"}, secrets.TypeDatabasePassword, nil)
	require.NoError(t, err)
	_, err = manager.StoreSecret(ctx, "svc-token", map[string]interface{}{"token": "sensitive"}, secrets.TypeAPIKey, nil)
	require.NoError(t, err)

	path, err := worker.SnapshotOnce(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "backups/"))

	names, err := worker.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, names, 1)

	snap, err := worker.ReadSnapshot(ctx, names[0])
	require.NoError(t, err)
	assert.Len(t, snap.Secrets, 2)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestSnapshotContainsNoSecretMaterial(t *testing.T) {
	ctx := context.Background()
	worker, manager, ms, _ := newTestWorker(t)

	_, err := manager.StoreSecret(ctx, "db-creds", map[string]interface{}{"password": "super-sensitive-value"}, secrets.TypeDatabasePassword, nil)
	require.NoError(t, err)

	path, err := worker.SnapshotOnce(ctx)
	require.NoError(t, err)

	raw, err := ms.Get(ctx, path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-sensitive-value")
}

func TestSnapshotOnceIsAudited(t *testing.T) {
	ctx := context.Background()
	worker, _, _, ledger := newTestWorker(t)

	_, err := worker.SnapshotOnce(ctx)
	require.NoError(t, err)

	events := ledger.Query(ctx, audit.Filter{Action: audit.ActionBackup})
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
}

func TestPruneRemovesSnapshotsPastRetention(t *testing.T) {
	ctx := context.Background()
	worker, _, ms, _ := newTestWorker(t)

	// A snapshot written well before the retention window.
	stale := time.Now().UTC().AddDate(0, 0, -45).Format(snapshotTimeFormat)
	require.NoError(t, ms.Put(ctx, "backups/"+stale, []byte(`{"taken_at":"2026-07-01T00:00:00Z","secrets":[]}`)))

	_, err := worker.SnapshotOnce(ctx)
	require.NoError(t, err)

	names, err := worker.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, names, 1, "the stale snapshot must be pruned")
	assert.NotEqual(t, stale, names[0])
}

func TestPruneKeepsSnapshotsWithinRetention(t *testing.T) {
	ctx := context.Background()
	worker, _, ms, _ := newTestWorker(t)

	recent := time.Now().UTC().AddDate(0, 0, -7).Format(snapshotTimeFormat)
	require.NoError(t, ms.Put(ctx, "backups/"+recent, []byte(`{"taken_at":"2026-08-16T00:00:00Z","secrets":[]}`)))

	_, err := worker.SnapshotOnce(ctx)
	require.NoError(t, err)

	names, err := worker.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestWorkerStartStop(t *testing.T) {
	worker, _, _, _ := newTestWorker(t)

	ctx := context.Background()
	worker.Start(ctx)
	worker.Start(ctx) // second start is a no-op

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, worker.Stop(stopCtx))
	require.NoError(t, worker.Stop(stopCtx))
}
