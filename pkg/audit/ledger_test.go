// pkg/audit/ledger_test.go

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAssignsIDAndTimestamp(t *testing.T) {
	ledger := NewLedger(nil)

	event := ledger.Log(context.Background(), Event{
		Actor:    "pandora",
		Action:   ActionStore,
		SecretID: "db-creds",
		Success:  true,
	})

	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, int64(1), ledger.Count())
}

func TestLedgerQueryFilters(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(nil)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	ledger.Log(ctx, Event{Timestamp: base, Action: ActionStore, SecretID: "a", Success: true})
	ledger.Log(ctx, Event{Timestamp: base.Add(time.Hour), Action: ActionRotate, SecretID: "a", Success: true})
	ledger.Log(ctx, Event{Timestamp: base.Add(2 * time.Hour), Action: ActionStore, SecretID: "b", Success: true})
	ledger.Log(ctx, Event{Timestamp: base.Add(3 * time.Hour), Action: ActionRevoke, SecretID: "a", Success: false})

	byAction := ledger.Query(ctx, Filter{Action: ActionStore})
	require.Len(t, byAction, 2)

	bySecret := ledger.Query(ctx, Filter{SecretID: "a"})
	require.Len(t, bySecret, 3)

	byWindow := ledger.Query(ctx, Filter{From: base.Add(30 * time.Minute), To: base.Add(150 * time.Minute)})
	require.Len(t, byWindow, 2)

	combined := ledger.Query(ctx, Filter{SecretID: "a", Action: ActionRevoke})
	require.Len(t, combined, 1)
	assert.False(t, combined[0].Success)
}

func TestLedgerQueryIsChronological(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(nil)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	// Logged out of order.
	ledger.Log(ctx, Event{Timestamp: base.Add(2 * time.Hour), Action: ActionRead, SecretID: "a"})
	ledger.Log(ctx, Event{Timestamp: base, Action: ActionStore, SecretID: "a"})
	ledger.Log(ctx, Event{Timestamp: base.Add(time.Hour), Action: ActionRotate, SecretID: "a"})

	events := ledger.Query(ctx, Filter{})
	require.Len(t, events, 3)
	assert.Equal(t, ActionStore, events[0].Action)
	assert.Equal(t, ActionRotate, events[1].Action)
	assert.Equal(t, ActionRead, events[2].Action)
}

// recordingSink captures appended events and can be told to fail.
type recordingSink struct {
	events []Event
	fail   error
}

func (rs *recordingSink) Append(ctx context.Context, event Event) error {
	if rs.fail != nil {
		return rs.fail
	}
	rs.events = append(rs.events, event)
	return nil
}

func TestLedgerPersistsThroughSink(t *testing.T) {
	sink := &recordingSink{}
	ledger := NewLedger(sink)

	ledger.Log(context.Background(), Event{Action: ActionBackup, Success: true})

	require.Len(t, sink.events, 1)
	assert.Equal(t, ActionBackup, sink.events[0].Action)
	assert.NotEmpty(t, sink.events[0].EventID)
}

func TestLedgerSurvivesSinkFailure(t *testing.T) {
	sink := &recordingSink{fail: assert.AnError}
	ledger := NewLedger(sink)

	event := ledger.Log(context.Background(), Event{Action: ActionStore, SecretID: "a", Success: true})

	// The in-memory entry stands even though persistence failed.
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, int64(1), ledger.Count())
	require.Len(t, ledger.Query(context.Background(), Filter{}), 1)
}
