// pkg/secrets/manager.go

package secrets

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/cache"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/crypto"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/health"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/metrics"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	metadataPrefix = "metadata"
	dataPrefix     = "data"
)

// rotationClaimTimeout bounds how long a Rotating claim stays exclusive.
// A process that dies between claiming and publishing leaves the claim
// behind; once it is this old, a later rotation may retake it.
const rotationClaimTimeout = 15 * time.Minute

func metadataPath(id string) string {
	return metadataPrefix + "/" + id
}

// dataPath addresses the encrypted payload record by content: retrying a
// data write is idempotent, and a crash between the data write and the
// metadata write leaves an orphaned blob rather than a dangling pointer.
func dataPath(id, checksum string) string {
	return dataPrefix + "/" + id + "/" + checksum
}

// Options wires a Manager. Store, Engine, and Ledger are required; Cache and
// Metrics are optional.
type Options struct {
	Store   store.Store
	Cache   cache.Cache
	Engine  *crypto.Engine
	Ledger  *audit.Ledger
	Metrics *metrics.Recorder

	// Actor is recorded on every audit event.
	Actor string

	// DefaultRotationIntervalDays is applied to secrets created without an
	// explicit interval. Defaults to 90.
	DefaultRotationIntervalDays int

	// CacheTTL bounds cache entries. Defaults to 5 minutes.
	CacheTTL time.Duration

	// Timeout bounds every store and cache round trip. Defaults to 10s.
	Timeout time.Duration
}

// Manager is the secret lifecycle facade: the only surface other subsystems
// call. It is an explicitly constructed handle, safe for concurrent use
// across distinct secret ids; per-id rotation is mutually exclusive.
type Manager struct {
	store   store.Store
	cache   cache.Cache // nil means store-only mode
	engine  *crypto.Engine
	ledger  *audit.Ledger
	metrics *metrics.Recorder
	monitor *health.Monitor

	actor           string
	defaultRotation int
	cacheTTL        time.Duration
	timeout         time.Duration

	// locks serializes the metadata pointer update per secret id. Reads
	// never take it.
	locks sync.Map

	genMu      sync.RWMutex
	generators map[SecretType]GeneratorFunc
}

// NewManager builds a Manager from Options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, cerr.Mark(cerr.New("store is required"), pandora_err.ErrInvalidInput)
	}
	if opts.Engine == nil {
		return nil, cerr.Mark(cerr.New("crypto engine is required"), pandora_err.ErrInvalidInput)
	}
	if opts.Ledger == nil {
		return nil, cerr.Mark(cerr.New("audit ledger is required"), pandora_err.ErrInvalidInput)
	}

	m := &Manager{
		store:           opts.Store,
		cache:           opts.Cache,
		engine:          opts.Engine,
		ledger:          opts.Ledger,
		metrics:         opts.Metrics,
		monitor:         health.NewMonitor(opts.Store, opts.Cache),
		actor:           opts.Actor,
		defaultRotation: opts.DefaultRotationIntervalDays,
		cacheTTL:        opts.CacheTTL,
		timeout:         opts.Timeout,
		generators:      defaultGenerators(),
	}
	if m.actor == "" {
		m.actor = "pandora"
	}
	if m.defaultRotation <= 0 {
		m.defaultRotation = 90
	}
	if m.cacheTTL <= 0 {
		m.cacheTTL = 5 * time.Minute
	}
	if m.timeout <= 0 {
		m.timeout = 10 * time.Second
	}

	if m.metrics != nil {
		m.metrics.RegisterSecretGauges(m.gaugeProvider(nil), m.gaugeProvider(func(meta Metadata) bool {
			return meta.Status == StatusActive
		}))
	}

	return m, nil
}

// RegisterGenerator installs or replaces the rotation generator for a type.
func (m *Manager) RegisterGenerator(typ SecretType, fn GeneratorFunc) {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	m.generators[typ] = fn
}

// StoreOptions tunes StoreSecret.
type StoreOptions struct {
	Tags map[string]string

	// TTLDays sets the expiry this many days out. Zero leaves the secret
	// without an expiry, excluding it from scheduled rotation.
	TTLDays int
}

// StoreSecret creates a secret (or a new version of an existing one). The
// record is created Pending and transitions to Active once both the data
// and metadata writes have completed.
func (m *Manager) StoreSecret(ctx context.Context, id string, payload map[string]interface{}, typ SecretType, opts *StoreOptions) (*Metadata, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	details := map[string]string{"secret_type": string(typ)}
	meta, err := m.storeSecret(ctx, id, payload, typ, opts, details)
	m.auditEvent(ctx, audit.ActionStore, id, details, err)
	return meta, err
}

func (m *Manager) storeSecret(ctx context.Context, id string, payload map[string]interface{}, typ SecretType, opts *StoreOptions, details map[string]string) (*Metadata, error) {
	if err := validateSecretID(id); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, cerr.Mark(cerr.New("payload cannot be empty"), pandora_err.ErrInvalidInput)
	}
	if _, ok := knownTypes[typ]; !ok {
		return nil, cerr.Mark(cerr.Newf("unknown secret type %q", typ), pandora_err.ErrInvalidInput)
	}

	existing, err := m.readMetadata(ctx, id)
	if err != nil && !cerr.Is(err, pandora_err.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == StatusRevoked {
		return nil, cerr.Mark(cerr.Newf("secret %s is revoked", id), pandora_err.ErrRevoked)
	}

	checksum, err := crypto.Checksum(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := m.engine.EncryptPayload(payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(encrypted)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to marshal encrypted payload")
	}

	// Data record first, metadata pointer last.
	if err := m.store.Put(ctx, dataPath(id, checksum), data); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	meta := &Metadata{
		SecretID:             id,
		Type:                 typ,
		Status:               StatusPending,
		CreatedAt:            now,
		RotationIntervalDays: m.defaultRotation,
		Version:              1,
		Checksum:             checksum,
	}
	if opts != nil {
		meta.Tags = opts.Tags
		if opts.TTLDays > 0 {
			expires := now.AddDate(0, 0, opts.TTLDays)
			meta.ExpiresAt = &expires
		}
	}
	if existing != nil {
		meta.CreatedAt = existing.CreatedAt
		meta.Version = existing.Version + 1
		meta.RotationIntervalDays = existing.RotationIntervalDays
	}

	// Dual write completed: Pending -> Active.
	meta.Status = StatusActive

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	cur, err := m.readMetadata(ctx, id)
	if err != nil && !cerr.Is(err, pandora_err.ErrNotFound) {
		return nil, err
	}
	if (cur == nil) != (existing == nil) || (cur != nil && cur.Version != existing.Version) {
		return nil, cerr.Mark(cerr.Newf("secret %s was modified concurrently", id), pandora_err.ErrConflict)
	}

	if err := m.writeMetadata(ctx, meta); err != nil {
		return nil, err
	}

	m.invalidateCache(ctx, id)
	details["version"] = itoa(meta.Version)
	return meta, nil
}

// GetSecret returns the decrypted payload of the latest version. Reads are
// cache-first and verify the checksum against the metadata record on every
// path; a mismatch is fatal for the read and always audited.
func (m *Manager) GetSecret(ctx context.Context, id string) (map[string]interface{}, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	details := map[string]string{}
	payload, err := m.getSecret(ctx, id, details)

	action := audit.ActionRead
	if cerr.Is(err, pandora_err.ErrChecksumMismatch) {
		action = audit.ActionChecksumMismatch
	}
	m.auditEvent(ctx, action, id, details, err)
	return payload, err
}

func (m *Manager) getSecret(ctx context.Context, id string, details map[string]string) (map[string]interface{}, error) {
	logger := otelzap.Ctx(ctx)

	if err := validateSecretID(id); err != nil {
		return nil, err
	}

	meta, err := m.readMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	details["version"] = itoa(meta.Version)

	if meta.Status == StatusRevoked {
		return nil, cerr.Mark(cerr.Newf("secret %s is revoked", id), pandora_err.ErrRevoked)
	}
	if meta.Status == StatusExpired {
		return nil, cerr.Mark(cerr.Newf("secret %s is expired", id), pandora_err.ErrExpired)
	}
	if meta.expired(time.Now().UTC()) {
		m.markExpired(ctx, meta)
		return nil, cerr.Mark(cerr.Newf("secret %s expired at %s", id, meta.ExpiresAt.Format(time.RFC3339)), pandora_err.ErrExpired)
	}

	if m.cache != nil {
		if payload, ok := m.cacheGet(ctx, id, meta.Checksum); ok {
			details["cache"] = "hit"
			if m.metrics != nil {
				m.metrics.IncCacheHit()
			}
			return payload, nil
		}
		details["cache"] = "miss"
		if m.metrics != nil {
			m.metrics.IncCacheMiss()
		}
	}

	raw, err := m.store.Get(ctx, dataPath(id, meta.Checksum))
	if err != nil {
		if cerr.Is(err, pandora_err.ErrNotFound) {
			return nil, cerr.WithHint(err, "metadata points at a missing data record")
		}
		return nil, err
	}

	var encrypted map[string]interface{}
	if err := json.Unmarshal(raw, &encrypted); err != nil {
		return nil, cerr.Mark(cerr.Wrapf(err, "corrupt data record for %s", id), pandora_err.ErrChecksumMismatch)
	}

	payload, err := m.engine.DecryptPayload(encrypted)
	if err != nil {
		// Failed authenticated decryption is an integrity violation, same
		// class as a digest mismatch.
		return nil, cerr.Mark(cerr.Wrapf(err, "data record for %s failed decryption", id), pandora_err.ErrChecksumMismatch)
	}

	if !crypto.VerifyChecksum(payload, meta.Checksum) {
		return nil, cerr.Mark(cerr.Newf("payload for %s does not match stored digest", id), pandora_err.ErrChecksumMismatch)
	}

	if m.cache != nil {
		plaintext, err := json.Marshal(payload)
		if err == nil {
			if err := m.cache.Set(ctx, id, plaintext, m.cacheTTL); err != nil {
				logger.Warn("Cache populate failed, continuing store-only", zap.String("secret_id", id), zap.Error(err))
			}
		}
	}

	return payload, nil
}

// cacheGet returns a verified cached payload. Any cache failure or stale
// entry is treated as a miss — the cache fails open.
func (m *Manager) cacheGet(ctx context.Context, id, checksum string) (map[string]interface{}, bool) {
	logger := otelzap.Ctx(ctx)

	raw, ok, err := m.cache.Get(ctx, id)
	if err != nil {
		logger.Warn("Cache read failed, falling back to store", zap.String("secret_id", id), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		_ = m.cache.Invalidate(ctx, id)
		return nil, false
	}
	// A pre-rotation entry no longer matches the metadata digest; drop it.
	if !crypto.VerifyChecksum(payload, checksum) {
		_ = m.cache.Invalidate(ctx, id)
		return nil, false
	}
	return payload, true
}

// RotateSecret replaces the secret's material while preserving identity and
// version history: generate, write the new data record, then move the
// metadata pointer under an optimistic version check. A losing concurrent
// rotation fails with ErrConflict; any mid-rotation failure rolls back to
// Active with the prior version authoritative. A Rotating claim abandoned
// by a dead process is retaken once it is older than rotationClaimTimeout.
func (m *Manager) RotateSecret(ctx context.Context, id string) (*Metadata, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	details := map[string]string{}
	meta, err := m.rotateSecret(ctx, id, details)
	m.auditEvent(ctx, audit.ActionRotate, id, details, err)
	if err == nil && m.metrics != nil {
		m.metrics.IncRotation()
	}
	return meta, err
}

func (m *Manager) rotateSecret(ctx context.Context, id string, details map[string]string) (*Metadata, error) {
	if err := validateSecretID(id); err != nil {
		return nil, err
	}

	meta, err := m.readMetadata(ctx, id)
	if err != nil {
		if cerr.Is(err, pandora_err.ErrNotFound) {
			return nil, cerr.Mark(err, pandora_err.ErrRotation)
		}
		return nil, err
	}

	switch meta.Status {
	case StatusRevoked:
		return nil, cerr.Mark(cerr.Newf("secret %s is revoked", id), pandora_err.ErrRevoked)
	case StatusExpired:
		return nil, cerr.Mark(cerr.Newf("secret %s is expired", id), pandora_err.ErrExpired)
	}

	m.genMu.RLock()
	gen, ok := m.generators[meta.Type]
	m.genMu.RUnlock()
	if !ok {
		return nil, cerr.Mark(cerr.Newf("no generator registered for secret type %q", meta.Type), pandora_err.ErrRotation)
	}

	// Claim the rotation: Active -> Rotating under the per-id lock. A
	// concurrent rotation finds a fresh claim and loses with ErrConflict;
	// a claim past rotationClaimTimeout is abandoned and retaken.
	claimedAt := time.Now().UTC()
	lock := m.lockFor(id)
	lock.Lock()
	cur, err := m.readMetadata(ctx, id)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if cur.Version != meta.Version || !claimable(cur, claimedAt) {
		lock.Unlock()
		return nil, cerr.Mark(cerr.Newf("secret %s is being modified concurrently (status %s, version %d)", id, cur.Status, cur.Version), pandora_err.ErrConflict)
	}
	prior := *cur
	prior.Status = StatusActive
	prior.RotatingSince = nil
	rotating := *cur
	rotating.Status = StatusRotating
	rotating.RotatingSince = &claimedAt
	if err := m.writeMetadata(ctx, &rotating); err != nil {
		lock.Unlock()
		return nil, cerr.Mark(err, pandora_err.ErrRotation)
	}
	lock.Unlock()
	details["old_version"] = itoa(prior.Version)

	newPayload, err := gen(ctx, &prior)
	if err != nil {
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(cerr.Wrapf(err, "generator failed for %s", id), pandora_err.ErrRotation)
	}

	newChecksum, err := crypto.Checksum(newPayload)
	if err != nil {
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(err, pandora_err.ErrRotation)
	}
	encrypted, err := m.engine.EncryptPayload(newPayload)
	if err != nil {
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(err, pandora_err.ErrRotation)
	}
	data, err := json.Marshal(encrypted)
	if err != nil {
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(cerr.Wrap(err, "failed to marshal encrypted payload"), pandora_err.ErrRotation)
	}

	// New data record is fully written and checksummed before the metadata
	// pointer moves; concurrent readers observe pre- or post-rotation state,
	// never a hybrid.
	if err := m.store.Put(ctx, dataPath(id, newChecksum), data); err != nil {
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(err, pandora_err.ErrRotation)
	}

	now := time.Now().UTC()
	next := prior
	next.Version++
	next.Status = StatusActive
	next.LastRotated = &now
	next.Checksum = newChecksum
	interval := next.RotationIntervalDays
	if interval <= 0 {
		interval = m.defaultRotation
	}
	expires := now.AddDate(0, 0, interval)
	next.ExpiresAt = &expires

	lock.Lock()
	cur2, err := m.readMetadata(ctx, id)
	if err != nil {
		lock.Unlock()
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(err, pandora_err.ErrRotation)
	}
	// The claim timestamp identifies the claim itself: a stale claim
	// retaken by another rotation keeps the version but not the timestamp.
	if cur2.Version != prior.Version || cur2.Status != StatusRotating || !sameClaim(cur2.RotatingSince, rotating.RotatingSince) {
		lock.Unlock()
		return nil, cerr.Mark(cerr.Newf("secret %s lost rotation race", id), pandora_err.ErrConflict)
	}
	if err := m.writeMetadata(ctx, &next); err != nil {
		lock.Unlock()
		m.rollbackRotation(ctx, &prior)
		return nil, cerr.Mark(err, pandora_err.ErrRotation)
	}
	lock.Unlock()

	// Invalidate only after the pointer update succeeded, so the cache can
	// never resurrect the pre-rotation value past this point.
	m.invalidateCache(ctx, id)
	details["new_version"] = itoa(next.Version)
	return &next, nil
}

// claimable reports whether a rotation may take the Rotating claim: the
// record is Active, or carries a claim old enough that its owner evidently
// died before publishing. A legacy Rotating record without a timestamp is
// treated as abandoned.
func claimable(meta *Metadata, now time.Time) bool {
	switch meta.Status {
	case StatusActive:
		return true
	case StatusRotating:
		return meta.RotatingSince == nil || now.Sub(*meta.RotatingSince) >= rotationClaimTimeout
	default:
		return false
	}
}

// sameClaim compares claim timestamps through a JSON round trip.
func sameClaim(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// rollbackRotation restores the prior metadata after a mid-rotation failure.
// Best effort: the old version is still authoritative either way, since the
// pointer never moved.
func (m *Manager) rollbackRotation(ctx context.Context, prior *Metadata) {
	restored := *prior
	restored.Status = StatusActive
	if err := m.writeMetadata(ctx, &restored); err != nil {
		otelzap.Ctx(ctx).Error("Rotation rollback write failed, secret left in rotating status",
			zap.String("secret_id", prior.SecretID),
			zap.Int("version", prior.Version),
			zap.Error(err))
	}
}

// RevokeSecret sets the secret's status to Revoked. Terminal and idempotent:
// revoking an already revoked secret reports success without a version bump.
func (m *Manager) RevokeSecret(ctx context.Context, id string) (bool, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	details := map[string]string{}
	revoked, err := m.revokeSecret(ctx, id, details)
	m.auditEvent(ctx, audit.ActionRevoke, id, details, err)
	return revoked, err
}

func (m *Manager) revokeSecret(ctx context.Context, id string, details map[string]string) (bool, error) {
	if err := validateSecretID(id); err != nil {
		return false, err
	}

	meta, err := m.readMetadata(ctx, id)
	if err != nil {
		return false, err
	}
	if meta.Status == StatusRevoked {
		details["idempotent"] = "true"
		return true, nil
	}
	if !meta.Status.CanTransitionTo(StatusRevoked) {
		return false, cerr.Mark(cerr.Newf("cannot revoke secret %s in status %s", id, meta.Status), pandora_err.ErrConflict)
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	cur, err := m.readMetadata(ctx, id)
	if err != nil {
		return false, err
	}
	if cur.Version != meta.Version || cur.Status != meta.Status {
		return false, cerr.Mark(cerr.Newf("secret %s was modified concurrently", id), pandora_err.ErrConflict)
	}

	revoked := *cur
	revoked.Status = StatusRevoked
	revoked.Version++
	if err := m.writeMetadata(ctx, &revoked); err != nil {
		return false, err
	}

	m.invalidateCache(ctx, id)
	// Revoked is terminal, so no later writer needs this mutex and the
	// entry would otherwise pin the id forever. A straggler holding the
	// old mutex still re-reads metadata and fails its version check.
	m.locks.Delete(id)
	details["version"] = itoa(revoked.Version)
	return true, nil
}

// ListSecrets returns metadata for every secret, sorted by id, optionally
// filtered by type. Secrets whose expiry has passed are reported as Expired
// without mutating the stored record.
func (m *Manager) ListSecrets(ctx context.Context, typeFilter SecretType) ([]Metadata, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	logger := otelzap.Ctx(ctx)

	names, err := m.store.List(ctx, metadataPrefix+"/")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	metas := make([]Metadata, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			continue
		}
		meta, err := m.readMetadata(ctx, name)
		if err != nil {
			logger.Warn("Skipping unreadable metadata record", zap.String("secret_id", name), zap.Error(err))
			continue
		}
		if typeFilter != "" && meta.Type != typeFilter {
			continue
		}
		if meta.Status == StatusActive && meta.expired(now) {
			meta.Status = StatusExpired
		}
		metas = append(metas, *meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].SecretID < metas[j].SecretID })
	return metas, nil
}

// AuditEvents returns matching ledger entries in chronological order.
func (m *Manager) AuditEvents(ctx context.Context, filter audit.Filter) []audit.Event {
	return m.ledger.Query(ctx, filter)
}

// HealthCheck probes store and cache reachability.
func (m *Manager) HealthCheck(ctx context.Context) *health.Report {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()
	return m.monitor.Check(ctx)
}

// Metrics returns a point-in-time snapshot of operational counters plus the
// live index-derived gauges.
func (m *Manager) Metrics(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if m.metrics != nil {
		snap = m.metrics.Counters()
	}
	snap.AuditEventCount = m.ledger.Count()

	metas, err := m.ListSecrets(ctx, "")
	if err != nil {
		return nil, err
	}
	snap.TotalSecrets = len(metas)
	for _, meta := range metas {
		if meta.Status == StatusActive {
			snap.ActiveSecrets++
		}
	}
	return &snap, nil
}

func (m *Manager) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	actual, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (m *Manager) readMetadata(ctx context.Context, id string) (*Metadata, error) {
	raw, err := m.store.Get(ctx, metadataPath(id))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, cerr.Wrapf(err, "corrupt metadata record for %s", id)
	}
	return &meta, nil
}

func (m *Manager) writeMetadata(ctx context.Context, meta *Metadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return cerr.Wrap(err, "failed to marshal metadata")
	}
	return m.store.Put(ctx, metadataPath(meta.SecretID), raw)
}

// markExpired performs the lazy Active -> Expired transition on read. Best
// effort and version-preserving: expiry is a state observation, not a
// mutation of the secret's history.
func (m *Manager) markExpired(ctx context.Context, meta *Metadata) {
	if !meta.Status.CanTransitionTo(StatusExpired) {
		return
	}
	expired := *meta
	expired.Status = StatusExpired
	if err := m.writeMetadata(ctx, &expired); err != nil {
		otelzap.Ctx(ctx).Warn("Failed to persist expired status",
			zap.String("secret_id", meta.SecretID), zap.Error(err))
	}
	m.invalidateCache(ctx, meta.SecretID)
}

// invalidateCache drops the entry synchronously after a mutation. A cache
// failure is logged, not surfaced: the entry's own ttl still bounds how
// long a stale value can live.
func (m *Manager) invalidateCache(ctx context.Context, id string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, id); err != nil {
		otelzap.Ctx(ctx).Warn("Cache invalidation failed",
			zap.String("secret_id", id), zap.Error(err))
	}
}

func (m *Manager) auditEvent(ctx context.Context, action audit.Action, secretID string, details map[string]string, opErr error) {
	event := audit.Event{
		Actor:    m.actor,
		Action:   action,
		SecretID: secretID,
		Details:  details,
		Success:  opErr == nil,
	}
	if opErr != nil {
		event.ErrorMessage = opErr.Error()
	}
	m.ledger.Log(ctx, event)
	if m.metrics != nil {
		m.metrics.IncAuditEvent()
		if opErr != nil {
			m.metrics.IncError()
		}
	}
}

// gaugeProvider builds a prometheus gauge callback over the metadata index.
func (m *Manager) gaugeProvider(match func(Metadata) bool) func() float64 {
	return func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		metas, err := m.ListSecrets(ctx, "")
		if err != nil {
			return 0
		}
		if match == nil {
			return float64(len(metas))
		}
		var n float64
		for _, meta := range metas {
			if match(meta) {
				n++
			}
		}
		return n
	}
}

func validateSecretID(id string) error {
	if id == "" {
		return cerr.Mark(cerr.New("secret id cannot be empty"), pandora_err.ErrInvalidInput)
	}
	if len(id) > 128 {
		return cerr.Mark(cerr.Newf("secret id too long (%d chars, max 128)", len(id)), pandora_err.ErrInvalidInput)
	}
	if strings.ContainsAny(id, "/ \t\n") {
		return cerr.Mark(cerr.Newf("secret id %q contains invalid characters", id), pandora_err.ErrInvalidInput)
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
