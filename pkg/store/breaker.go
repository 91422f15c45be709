// pkg/store/breaker.go

package store

import (
	"context"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// BreakerStore wraps a Store with a circuit breaker so a flapping backend
// fails fast instead of stacking up timeouts. NotFound results count as
// success: a missing record says nothing about backend health.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps the inner store with a circuit breaker. The breaker
// opens after five consecutive failures and probes again after 30 seconds.
func NewBreakerStore(inner Store) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        inner.Name() + "-store",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				cerr.Is(err, pandora_err.ErrNotFound) ||
				cerr.Is(err, pandora_err.ErrInvalidInput) ||
				cerr.Is(err, pandora_err.ErrPermissionDenied)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			otelzap.L().Warn("Store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (bs *BreakerStore) Put(ctx context.Context, path string, data []byte) error {
	_, err := bs.cb.Execute(func() (interface{}, error) {
		return nil, bs.inner.Put(ctx, path, data)
	})
	return bs.classify(err)
}

func (bs *BreakerStore) Get(ctx context.Context, path string) ([]byte, error) {
	result, err := bs.cb.Execute(func() (interface{}, error) {
		return bs.inner.Get(ctx, path)
	})
	if err != nil {
		return nil, bs.classify(err)
	}
	return result.([]byte), nil
}

func (bs *BreakerStore) List(ctx context.Context, prefix string) ([]string, error) {
	result, err := bs.cb.Execute(func() (interface{}, error) {
		return bs.inner.List(ctx, prefix)
	})
	if err != nil {
		return nil, bs.classify(err)
	}
	return result.([]string), nil
}

func (bs *BreakerStore) Delete(ctx context.Context, path string) error {
	_, err := bs.cb.Execute(func() (interface{}, error) {
		return nil, bs.inner.Delete(ctx, path)
	})
	return bs.classify(err)
}

func (bs *BreakerStore) Name() string {
	return bs.inner.Name()
}

// classify maps breaker-internal errors onto the connection sentinel so
// callers see one retryable error kind whether the backend is down or the
// breaker is open.
func (bs *BreakerStore) classify(err error) error {
	if err == nil {
		return nil
	}
	if cerr.Is(err, gobreaker.ErrOpenState) || cerr.Is(err, gobreaker.ErrTooManyRequests) {
		return cerr.Mark(cerr.Wrap(err, "store circuit breaker open"), pandora_err.ErrConnection)
	}
	return err
}
