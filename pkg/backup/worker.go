// pkg/backup/worker.go

// Package backup snapshots the metadata index on a schedule and prunes
// snapshots past the retention window.
package backup

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/secrets"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	backupPrefix = "backups"

	// snapshotTimeFormat keys snapshots so lexical order is chronological.
	snapshotTimeFormat = "20060102T150405Z"
)

// Snapshot is one point-in-time copy of the metadata index. Data records are
// content-addressed and immutable, so the index alone is enough to restore
// which version of every secret was current.
type Snapshot struct {
	TakenAt time.Time          `json:"taken_at"`
	Secrets []secrets.Metadata `json:"secrets"`
}

// Worker takes periodic snapshots.
type Worker struct {
	manager *secrets.Manager
	st      store.Store
	ledger  *audit.Ledger

	actor         string
	interval      time.Duration
	retentionDays int

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewWorker builds a Worker snapshotting at the given interval and pruning
// snapshots older than retentionDays.
func NewWorker(manager *secrets.Manager, st store.Store, ledger *audit.Ledger, actor string, interval time.Duration, retentionDays int) *Worker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if actor == "" {
		actor = "pandora"
	}
	return &Worker{
		manager:       manager,
		st:            st,
		ledger:        ledger,
		actor:         actor,
		interval:      interval,
		retentionDays: retentionDays,
	}
}

// Start launches the snapshot loop. No-op if already running.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(ctx, w.stop, w.done)
}

// Stop shuts the loop down, waiting for an in-flight snapshot or the
// context, whichever finishes first.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return cerr.Wrap(ctx.Err(), "timed out waiting for backup to finish")
	}
}

func (w *Worker) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	logger := otelzap.Ctx(ctx)
	logger.Info("Backup worker started",
		zap.Duration("interval", w.interval),
		zap.Int("retention_days", w.retentionDays))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			logger.Info("Backup worker stopped")
			return
		case <-ctx.Done():
			logger.Info("Backup worker context cancelled")
			return
		case <-ticker.C:
			if _, err := w.SnapshotOnce(ctx); err != nil {
				logger.Error("Scheduled backup failed", zap.Error(err))
			}
		}
	}
}

// SnapshotOnce takes one snapshot, prunes expired ones, and returns the
// snapshot's storage path.
func (w *Worker) SnapshotOnce(ctx context.Context) (string, error) {
	path, count, err := w.snapshot(ctx)

	if w.ledger != nil {
		event := audit.Event{
			Actor:   w.actor,
			Action:  audit.ActionBackup,
			Success: err == nil,
			Details: map[string]string{"path": path, "secrets": strconv.Itoa(count)},
		}
		if err != nil {
			event.ErrorMessage = err.Error()
		}
		w.ledger.Log(ctx, event)
	}
	if err != nil {
		return "", err
	}

	w.prune(ctx)
	return path, nil
}

func (w *Worker) snapshot(ctx context.Context) (string, int, error) {
	metas, err := w.manager.ListSecrets(ctx, "")
	if err != nil {
		return "", 0, cerr.Wrap(err, "failed to list secrets for backup")
	}

	now := time.Now().UTC()
	snap := Snapshot{TakenAt: now, Secrets: metas}
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", 0, cerr.Wrap(err, "failed to marshal snapshot")
	}

	path := backupPrefix + "/" + now.Format(snapshotTimeFormat)
	if err := w.st.Put(ctx, path, raw); err != nil {
		return path, 0, cerr.Wrap(err, "failed to write snapshot")
	}

	otelzap.Ctx(ctx).Info("Snapshot written",
		zap.String("path", path),
		zap.Int("secrets", len(metas)))
	return path, len(metas), nil
}

// prune deletes snapshots older than the retention window. Best effort: a
// failed prune never fails the backup that triggered it.
func (w *Worker) prune(ctx context.Context) {
	logger := otelzap.Ctx(ctx)

	names, err := w.st.List(ctx, backupPrefix+"/")
	if err != nil {
		if !cerr.Is(err, pandora_err.ErrNotFound) {
			logger.Warn("Snapshot prune listing failed", zap.Error(err))
		}
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -w.retentionDays)
	sort.Strings(names)
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			continue
		}
		taken, err := time.Parse(snapshotTimeFormat, name)
		if err != nil {
			logger.Warn("Skipping unrecognized snapshot name", zap.String("name", name))
			continue
		}
		if !taken.Before(cutoff) {
			break
		}
		if err := w.st.Delete(ctx, backupPrefix+"/"+name); err != nil {
			logger.Warn("Failed to prune snapshot", zap.String("name", name), zap.Error(err))
			continue
		}
		logger.Info("Pruned snapshot", zap.String("name", name))
	}
}

// ListSnapshots returns the stored snapshot names, oldest first.
func (w *Worker) ListSnapshots(ctx context.Context) ([]string, error) {
	names, err := w.st.List(ctx, backupPrefix+"/")
	if err != nil {
		if cerr.Is(err, pandora_err.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ReadSnapshot loads one snapshot by name.
func (w *Worker) ReadSnapshot(ctx context.Context, name string) (*Snapshot, error) {
	raw, err := w.st.Get(ctx, backupPrefix+"/"+name)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, cerr.Wrapf(err, "corrupt snapshot %s", name)
	}
	return &snap, nil
}

