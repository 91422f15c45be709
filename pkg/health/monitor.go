// pkg/health/monitor.go

// Package health aggregates store and cache reachability into a single
// health report.
package health

import (
	"context"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/cache"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Report is the aggregated health view. Overall tracks the store only: the
// cache is a performance layer and its loss degrades reads to store-only
// mode instead of taking the manager down.
type Report struct {
	StoreReachable bool      `json:"store_reachable"`
	CacheReachable bool      `json:"cache_reachable"`
	Overall        bool      `json:"overall"`
	CheckedAt      time.Time `json:"checked_at"`
	Err            error     `json:"-"`
}

// Monitor probes the manager's external collaborators.
type Monitor struct {
	st store.Store
	c  cache.Cache
}

// NewMonitor creates a Monitor. The cache may be nil (store-only mode); it
// then reports as reachable since nothing is expected of it.
func NewMonitor(st store.Store, c cache.Cache) *Monitor {
	return &Monitor{st: st, c: c}
}

// Check probes both backends and aggregates the outcome.
func (m *Monitor) Check(ctx context.Context) *Report {
	logger := otelzap.Ctx(ctx)
	report := &Report{CheckedAt: time.Now().UTC(), CacheReachable: true}
	var probeErrs *multierror.Error

	// A listing of the metadata index doubles as the store liveness probe;
	// an empty index is a healthy answer.
	if _, err := m.st.List(ctx, "metadata/"); err != nil && !cerr.Is(err, pandora_err.ErrNotFound) {
		probeErrs = multierror.Append(probeErrs, cerr.Wrap(err, "store probe failed"))
		logger.Warn("Store health probe failed", zap.String("backend", m.st.Name()), zap.Error(err))
	} else {
		report.StoreReachable = true
	}

	if m.c != nil {
		if err := m.c.Ping(ctx); err != nil {
			report.CacheReachable = false
			probeErrs = multierror.Append(probeErrs, cerr.Wrap(err, "cache probe failed"))
			logger.Warn("Cache health probe failed", zap.Error(err))
		}
	}

	report.Overall = report.StoreReachable
	report.Err = probeErrs.ErrorOrNil()
	return report
}
