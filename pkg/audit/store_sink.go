// pkg/audit/store_sink.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// auditPrefix is where events live in the backing store.
const auditPrefix = "audit"

// StoreSink persists ledger entries into the backing store, one record per
// event under audit/<timestamp>-<event_id>. The timestamp prefix keeps
// listings chronological.
type StoreSink struct {
	st store.Store
}

// NewStoreSink creates a sink writing into the given store.
func NewStoreSink(st store.Store) *StoreSink {
	return &StoreSink{st: st}
}

func (s *StoreSink) Append(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return cerr.Wrap(err, "failed to marshal audit event")
	}

	path := fmt.Sprintf("%s/%s-%s", auditPrefix, event.Timestamp.UTC().Format("20060102T150405.000000000Z"), event.EventID)
	return s.st.Put(ctx, path, data)
}

// LoadLedger rebuilds a Ledger from the events persisted under audit/ and
// attaches a StoreSink so new events land in the same store. Record names
// carry the event timestamp, so the restored history is already
// chronological. Unreadable records are skipped, not fatal: one corrupt
// entry must not hide the rest of the trail.
func LoadLedger(ctx context.Context, st store.Store) (*Ledger, error) {
	ledger := NewLedger(NewStoreSink(st))

	names, err := st.List(ctx, auditPrefix+"/")
	if err != nil {
		if cerr.Is(err, pandora_err.ErrNotFound) {
			return ledger, nil
		}
		return nil, cerr.Wrap(err, "failed to list audit records")
	}

	logger := otelzap.Ctx(ctx)
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			continue
		}
		raw, err := st.Get(ctx, auditPrefix+"/"+name)
		if err != nil {
			logger.Warn("Skipping unreadable audit record", zap.String("record", name), zap.Error(err))
			continue
		}
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.Warn("Skipping corrupt audit record", zap.String("record", name), zap.Error(err))
			continue
		}
		ledger.events = append(ledger.events, event)
	}
	return ledger, nil
}
