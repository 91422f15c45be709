// pkg/rotation/scheduler.go

// Package rotation runs the background scan that rotates secrets whose
// expiry has passed.
package rotation

import (
	"context"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/secrets"
	cerr "github.com/cockroachdb/errors"
	"github.com/jpillora/backoff"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Scheduler periodically lists secrets and rotates every Active one whose
// expires_at has passed. Rotations already claimed by another caller
// (ErrConflict) are skipped, not retried: the other rotation owns them.
type Scheduler struct {
	manager *secrets.Manager

	interval   time.Duration
	maxRetries int

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewScheduler builds a Scheduler scanning at the given interval. Intervals
// below one minute are raised to one minute.
func NewScheduler(manager *secrets.Manager, interval time.Duration) *Scheduler {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Scheduler{
		manager:    manager,
		interval:   interval,
		maxRetries: 3,
	}
}

// Start launches the scan loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ctx, s.stop, s.done)
}

// Stop shuts the loop down, waiting for an in-flight scan to finish or the
// context to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return cerr.Wrap(ctx.Err(), "timed out waiting for rotation scan to finish")
	}
}

func (s *Scheduler) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	logger := otelzap.Ctx(ctx)
	logger.Info("Rotation scheduler started", zap.Duration("scan_interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			logger.Info("Rotation scheduler stopped")
			return
		case <-ctx.Done():
			logger.Info("Rotation scheduler context cancelled")
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs a single rotation sweep and reports how many secrets were
// rotated. Per-secret failures are logged and do not abort the sweep.
func (s *Scheduler) ScanOnce(ctx context.Context) int {
	logger := otelzap.Ctx(ctx)

	metas, err := s.manager.ListSecrets(ctx, "")
	if err != nil {
		logger.Error("Rotation scan failed to list secrets", zap.Error(err))
		return 0
	}

	now := time.Now().UTC()
	rotated := 0
	for _, meta := range metas {
		if !due(meta, now) {
			continue
		}
		if err := s.rotateWithRetry(ctx, meta.SecretID); err != nil {
			logger.Warn("Scheduled rotation failed",
				zap.String("secret_id", meta.SecretID),
				zap.Int("version", meta.Version),
				zap.Error(err))
			continue
		}
		rotated++
	}

	if rotated > 0 {
		logger.Info("Rotation sweep complete",
			zap.Int("rotated", rotated),
			zap.Int("scanned", len(metas)))
	}
	return rotated
}

// due reports whether a secret needs scheduled rotation. ListSecrets reports
// lapsed Active secrets as Expired without persisting the transition, so
// both statuses qualify here as long as the record itself is still Active.
// Rotating also qualifies: a claim abandoned by a dead process is retaken
// by RotateSecret, while a live one comes back as ErrConflict and is
// skipped.
func due(meta secrets.Metadata, now time.Time) bool {
	if meta.ExpiresAt == nil || meta.ExpiresAt.After(now) {
		return false
	}
	switch meta.Status {
	case secrets.StatusActive, secrets.StatusExpired, secrets.StatusRotating:
		return true
	default:
		return false
	}
}

// rotateWithRetry retries transient failures with exponential backoff.
// Conflicts and user errors are surfaced immediately.
func (s *Scheduler) rotateWithRetry(ctx context.Context, id string) error {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return cerr.Wrap(ctx.Err(), "rotation retry interrupted")
			}
		}

		_, err := s.manager.RotateSecret(ctx, id)
		if err == nil {
			return nil
		}
		if cerr.Is(err, pandora_err.ErrConflict) {
			// Another rotation holds the claim; it will finish the job.
			return nil
		}
		if cerr.Is(err, pandora_err.ErrExpired) || cerr.Is(err, pandora_err.ErrRevoked) {
			// Left the rotatable window between the scan and the attempt.
			return nil
		}
		if !pandora_err.IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return cerr.Wrapf(lastErr, "rotation failed after %d retries", s.maxRetries)
}
