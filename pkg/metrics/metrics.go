// pkg/metrics/metrics.go

// Package metrics holds the fixed, statically declared metrics registry for
// the secret lifecycle manager. Every collector is registered at
// construction; nothing is created by name at runtime.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is a point-in-time view of the manager's counters, suitable for
// the metrics CLI command and health tooling.
type Snapshot struct {
	TotalSecrets    int   `json:"total_secrets"`
	ActiveSecrets   int   `json:"active_secrets"`
	RotationCount   int64 `json:"rotation_count"`
	CacheHits       int64 `json:"cache_hits"`
	CacheMisses     int64 `json:"cache_misses"`
	AuditEventCount int64 `json:"audit_event_count"`
	ErrorCount      int64 `json:"error_count"`
}

// Recorder owns the atomic counters and their prometheus collectors. The
// atomics are the source of truth; prometheus reads them through
// CounterFunc/GaugeFunc so the two views can never drift.
type Recorder struct {
	registry *prometheus.Registry

	rotations   atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	auditEvents atomic.Int64
	errors      atomic.Int64
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	counter := func(name, help string, load func() int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "pandora",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(load()) })
	}

	r.registry.MustRegister(
		counter("rotations_total", "Completed secret rotations.", r.rotations.Load),
		counter("cache_hits_total", "Secret reads served from cache.", r.cacheHits.Load),
		counter("cache_misses_total", "Secret reads that fell through to the store.", r.cacheMisses.Load),
		counter("audit_events_total", "Audit ledger entries written.", r.auditEvents.Load),
		counter("errors_total", "Failed lifecycle operations.", r.errors.Load),
	)

	return r
}

// RegisterSecretGauges wires the total/active secret gauges to live
// providers (the manager's metadata index). Called once during manager
// construction.
func (r *Recorder) RegisterSecretGauges(total, active func() float64) {
	r.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pandora",
			Name:      "secrets_total",
			Help:      "Secrets tracked in the metadata index.",
		}, total),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pandora",
			Name:      "secrets_active",
			Help:      "Secrets currently in active status.",
		}, active),
	)
}

// Registry exposes the prometheus registry for HTTP exposition.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) IncRotation() { r.rotations.Add(1) }

func (r *Recorder) IncCacheHit() { r.cacheHits.Add(1) }

func (r *Recorder) IncCacheMiss() { r.cacheMisses.Add(1) }

func (r *Recorder) IncAuditEvent() { r.auditEvents.Add(1) }

func (r *Recorder) IncError() { r.errors.Add(1) }

// Counters fills the counter fields of a Snapshot; the caller supplies the
// index-derived gauge values.
func (r *Recorder) Counters() Snapshot {
	return Snapshot{
		RotationCount:   r.rotations.Load(),
		CacheHits:       r.cacheHits.Load(),
		CacheMisses:     r.cacheMisses.Load(),
		AuditEventCount: r.auditEvents.Load(),
		ErrorCount:      r.errors.Load(),
	}
}
