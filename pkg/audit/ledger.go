// pkg/audit/ledger.go

// Package audit provides the append-only event ledger recording every secret
// lifecycle operation. Entries are never mutated or deleted, and never
// contain secret values — only identifiers and operation details.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Action identifies the lifecycle operation an event records.
type Action string

const (
	ActionStore            Action = "store"
	ActionRead             Action = "read"
	ActionRotate           Action = "rotate"
	ActionRevoke           Action = "revoke"
	ActionBackup           Action = "backup"
	ActionChecksumMismatch Action = "checksum_mismatch"
)

// Event is one immutable ledger entry. Details carries operation context
// such as versions and types; secret values must never appear in it.
type Event struct {
	EventID      string            `json:"event_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Actor        string            `json:"actor"`
	Action       Action            `json:"action"`
	SecretID     string            `json:"secret_id"`
	Details      map[string]string `json:"details,omitempty"`
	Success      bool              `json:"success"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Sink persists ledger entries. The ledger itself stays authoritative for
// in-process queries; a sink failure is logged, never surfaced to the
// operation being audited.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Filter narrows a Query. Zero values match everything.
type Filter struct {
	Action   Action
	SecretID string
	From     time.Time
	To       time.Time
}

// Ledger is the append-only in-memory event log with optional persistence.
type Ledger struct {
	mu     sync.RWMutex
	events []Event
	sink   Sink
}

// NewLedger creates a Ledger. The sink may be nil for a purely in-memory
// ledger (tests, ephemeral tooling).
func NewLedger(sink Sink) *Ledger {
	return &Ledger{sink: sink}
}

// Log appends an event, assigning an event ID and timestamp when unset.
// Append never fails: a sink error is logged and the in-memory entry stands.
func (l *Ledger) Log(ctx context.Context, event Event) Event {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.Append(ctx, event); err != nil {
			otelzap.Ctx(ctx).Warn("Audit sink append failed, event retained in memory",
				zap.String("event_id", event.EventID),
				zap.String("action", string(event.Action)),
				zap.Error(err))
		}
	}

	return event
}

// Query returns matching events in chronological order.
func (l *Ledger) Query(ctx context.Context, filter Filter) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]Event, 0)
	for _, event := range l.events {
		if filter.Action != "" && event.Action != filter.Action {
			continue
		}
		if filter.SecretID != "" && event.SecretID != filter.SecretID {
			continue
		}
		if !filter.From.IsZero() && event.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && event.Timestamp.After(filter.To) {
			continue
		}
		matched = append(matched, event)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	return matched
}

// Count returns the number of events logged so far.
func (l *Ledger) Count() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.events))
}
