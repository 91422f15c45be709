// pkg/secrets/manager_test.go

package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/cache"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/crypto"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/metrics"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	manager *Manager
	store   *store.MemoryStore
	cache   *cache.MemoryCache
	ledger  *audit.Ledger
	rec     *metrics.Recorder
}

func newFixture(t *testing.T) *managerFixture {
	t.Helper()

	ms := store.NewMemoryStore()
	mc := cache.NewMemoryCache()
	ledger := audit.NewLedger(nil)
	rec := metrics.NewRecorder()

	engine, err := crypto.NewEngine(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)

	manager, err := NewManager(Options{
		Store:   ms,
		Cache:   mc,
		Engine:  engine,
		Ledger:  ledger,
		Metrics: rec,
		Actor:   "test",
	})
	require.NoError(t, err)

	return &managerFixture{manager: manager, store: ms, cache: mc, ledger: ledger, rec: rec}
}

func (f *managerFixture) mustStore(t *testing.T, id string, payload map[string]interface{}) *Metadata {
	t.Helper()
	meta, err := f.manager.StoreSecret(context.Background(), id, payload, TypeAPIKey, nil)
	require.NoError(t, err)
	return meta
}

// rewriteMetadata mutates the stored metadata record directly, bypassing the
// manager. Used to simulate clock progression and crash states.
func (f *managerFixture) rewriteMetadata(t *testing.T, id string, mutate func(*Metadata)) {
	t.Helper()
	ctx := context.Background()
	raw, err := f.store.Get(ctx, metadataPath(id))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	mutate(&meta)
	updated, err := json.Marshal(&meta)
	require.NoError(t, err)
	require.NoError(t, f.store.Put(ctx, metadataPath(id), updated))
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	engine, err := crypto.NewEngine(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)

	_, err = NewManager(Options{Engine: engine, Ledger: audit.NewLedger(nil)})
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))

	_, err = NewManager(Options{Store: store.NewMemoryStore(), Ledger: audit.NewLedger(nil)})
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))

	_, err = NewManager(Options{Store: store.NewMemoryStore(), Engine: engine})
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))
}

func TestStoreAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	payload := map[string]interface{}{
		"token": "svc-token-abc123",
		"url":   "https://api.internal",
	}
	meta, err := f.manager.StoreSecret(ctx, "svc-token", payload, TypeAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Version)
	assert.Equal(t, StatusActive, meta.Status)
	assert.NotEmpty(t, meta.Checksum)

	got, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStoredPayloadIsEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"token": "super-sensitive-value"})

	for _, path := range f.store.Paths() {
		raw, err := f.store.Get(ctx, path)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "super-sensitive-value",
			"plaintext leaked into %s", path)
	}
}

func TestGetSecretNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.GetSecret(context.Background(), "missing")
	assert.True(t, cerr.Is(err, pandora_err.ErrNotFound))
}

func TestStoreSecretValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.StoreSecret(ctx, "", map[string]interface{}{"v": "x"}, TypeAPIKey, nil)
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))

	_, err = f.manager.StoreSecret(ctx, "a/b", map[string]interface{}{"v": "x"}, TypeAPIKey, nil)
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))

	_, err = f.manager.StoreSecret(ctx, "id", nil, TypeAPIKey, nil)
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))

	_, err = f.manager.StoreSecret(ctx, "id", map[string]interface{}{"v": "x"}, SecretType("bogus"), nil)
	assert.True(t, cerr.Is(err, pandora_err.ErrInvalidInput))
}

func TestVersionIncrementsByOneOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	meta := f.mustStore(t, "db-creds", map[string]interface{}{"password": "one"})
	assert.Equal(t, 1, meta.Version)

	meta, err := f.manager.StoreSecret(ctx, "db-creds", map[string]interface{}{"password": "two"}, TypeAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Version)

	meta, err = f.manager.RotateSecret(ctx, "db-creds")
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Version)

	revoked, err := f.manager.RevokeSecret(ctx, "db-creds")
	require.NoError(t, err)
	assert.True(t, revoked)

	metas, err := f.manager.ListSecrets(ctx, "")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, 4, metas[0].Version)
	assert.Equal(t, StatusRevoked, metas[0].Status)
}

func TestOnlyLatestVersionIsReadable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "db-creds", map[string]interface{}{"password": "old"})
	_, err := f.manager.StoreSecret(ctx, "db-creds", map[string]interface{}{"password": "new"}, TypeAPIKey, nil)
	require.NoError(t, err)

	got, err := f.manager.GetSecret(ctx, "db-creds")
	require.NoError(t, err)
	assert.Equal(t, "new", got["password"])
}

func TestTamperedDataRecordFailsWithChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	meta := f.mustStore(t, "svc-token", map[string]interface{}{"token": "value"})

	require.True(t, f.store.Corrupt(dataPath("svc-token", meta.Checksum)))

	_, err := f.manager.GetSecret(ctx, "svc-token")
	require.Error(t, err)
	assert.True(t, cerr.Is(err, pandora_err.ErrChecksumMismatch))

	// The integrity violation is always audited.
	events := f.ledger.Query(ctx, audit.Filter{Action: audit.ActionChecksumMismatch})
	require.Len(t, events, 1)
	assert.Equal(t, "svc-token", events[0].SecretID)
	assert.False(t, events[0].Success)
}

func TestTamperAuditedEvenWhenCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	meta := f.mustStore(t, "svc-token", map[string]interface{}{"token": "value"})

	// Prime then drop the cache so the tampered record must be read.
	_, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	require.NoError(t, f.cache.Invalidate(ctx, "svc-token"))

	require.True(t, f.store.Corrupt(dataPath("svc-token", meta.Checksum)))

	_, err = f.manager.GetSecret(ctx, "svc-token")
	assert.True(t, cerr.Is(err, pandora_err.ErrChecksumMismatch))
}

func TestRotateReplacesMaterialAndBumpsVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "original"})
	before, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)

	meta, err := f.manager.RotateSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Version)
	assert.Equal(t, StatusActive, meta.Status)
	assert.NotNil(t, meta.LastRotated)
	assert.NotNil(t, meta.ExpiresAt)

	after, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.NotEqual(t, before["value"], after["value"],
		"rotation must replace the material")
}

func TestRotateUnknownSecretIsRotationError(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.RotateSecret(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, cerr.Is(err, pandora_err.ErrRotation))
	assert.True(t, cerr.Is(err, pandora_err.ErrNotFound))
}

func TestRotateWithoutGeneratorFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})
	f.manager.genMu.Lock()
	delete(f.manager.generators, TypeAPIKey)
	f.manager.genMu.Unlock()

	_, err := f.manager.RotateSecret(ctx, "svc-token")
	assert.True(t, cerr.Is(err, pandora_err.ErrRotation))
}

func TestRotationRollsBackOnGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "original"})
	f.manager.RegisterGenerator(TypeAPIKey, func(ctx context.Context, meta *Metadata) (map[string]interface{}, error) {
		return nil, cerr.New("upstream provider down")
	})

	_, err := f.manager.RotateSecret(ctx, "svc-token")
	require.Error(t, err)
	assert.True(t, cerr.Is(err, pandora_err.ErrRotation))

	// Old version still authoritative and readable.
	got, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, "original", got["value"])

	metas, err := f.manager.ListSecrets(ctx, "")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, StatusActive, metas[0].Status)
	assert.Equal(t, 1, metas[0].Version)
}

func TestConcurrentRotationsExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})

	// The winner's generator blocks so the second rotation provably overlaps
	// with the first.
	started := make(chan struct{})
	proceed := make(chan struct{})
	f.manager.RegisterGenerator(TypeAPIKey, func(ctx context.Context, meta *Metadata) (map[string]interface{}, error) {
		close(started)
		<-proceed
		return map[string]interface{}{"value": "rotated"}, nil
	})

	var winnerErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, winnerErr = f.manager.RotateSecret(ctx, "svc-token")
	}()

	<-started
	_, loserErr := f.manager.RotateSecret(ctx, "svc-token")
	require.Error(t, loserErr)
	assert.True(t, cerr.Is(loserErr, pandora_err.ErrConflict),
		"the losing rotation must fail with a conflict, got: %v", loserErr)

	close(proceed)
	wg.Wait()
	require.NoError(t, winnerErr)

	metas, err := f.manager.ListSecrets(ctx, "")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, 2, metas[0].Version, "version advances by exactly one")
	assert.Equal(t, StatusActive, metas[0].Status)
}

func TestRotateRevokedAndExpiredSecrets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "revoked-secret", map[string]interface{}{"value": "x"})
	_, err := f.manager.RevokeSecret(ctx, "revoked-secret")
	require.NoError(t, err)
	_, err = f.manager.RotateSecret(ctx, "revoked-secret")
	assert.True(t, cerr.Is(err, pandora_err.ErrRevoked))

	f.mustStore(t, "expired-secret", map[string]interface{}{"value": "x"})
	f.rewriteMetadata(t, "expired-secret", func(meta *Metadata) {
		meta.Status = StatusExpired
	})
	_, err = f.manager.RotateSecret(ctx, "expired-secret")
	assert.True(t, cerr.Is(err, pandora_err.ErrExpired))
}

func TestRotateRetakesAbandonedRotatingClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})

	// A process that died mid-rotation left the claim behind an hour ago.
	stale := time.Now().UTC().Add(-time.Hour)
	f.rewriteMetadata(t, "svc-token", func(meta *Metadata) {
		meta.Status = StatusRotating
		meta.RotatingSince = &stale
	})

	meta, err := f.manager.RotateSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Version)
	assert.Equal(t, StatusActive, meta.Status)
	assert.Nil(t, meta.RotatingSince)

	_, err = f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
}

func TestRotateRespectsFreshRotatingClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})

	claimed := time.Now().UTC()
	f.rewriteMetadata(t, "svc-token", func(meta *Metadata) {
		meta.Status = StatusRotating
		meta.RotatingSince = &claimed
	})

	_, err := f.manager.RotateSecret(ctx, "svc-token")
	assert.True(t, cerr.Is(err, pandora_err.ErrConflict))
}

func TestRotatingClaimWithoutTimestampIsRetaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})
	f.rewriteMetadata(t, "svc-token", func(meta *Metadata) {
		meta.Status = StatusRotating
	})

	meta, err := f.manager.RotateSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Version)
	assert.Equal(t, StatusActive, meta.Status)
}

func TestGetSecretLazilyExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "short-lived", map[string]interface{}{"value": "x"})
	past := time.Now().UTC().Add(-time.Hour)
	f.rewriteMetadata(t, "short-lived", func(meta *Metadata) {
		meta.ExpiresAt = &past
	})

	_, err := f.manager.GetSecret(ctx, "short-lived")
	require.Error(t, err)
	assert.True(t, cerr.Is(err, pandora_err.ErrExpired))

	// The transition was persisted; the version is untouched.
	metas, err := f.manager.ListSecrets(ctx, "")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, StatusExpired, metas[0].Status)
	assert.Equal(t, 1, metas[0].Version)
}

func TestRevokeIsTerminalAndIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "db-creds", map[string]interface{}{"password": "x"})

	ok, err := f.manager.RevokeSecret(ctx, "db-creds")
	require.NoError(t, err)
	assert.True(t, ok)

	// Second revocation succeeds without another version bump.
	ok, err = f.manager.RevokeSecret(ctx, "db-creds")
	require.NoError(t, err)
	assert.True(t, ok)

	metas, err := f.manager.ListSecrets(ctx, "")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, 2, metas[0].Version)

	// Reads, rotations, and new versions are all rejected.
	_, err = f.manager.GetSecret(ctx, "db-creds")
	assert.True(t, cerr.Is(err, pandora_err.ErrRevoked))
	_, err = f.manager.RotateSecret(ctx, "db-creds")
	assert.True(t, cerr.Is(err, pandora_err.ErrRevoked))
	_, err = f.manager.StoreSecret(ctx, "db-creds", map[string]interface{}{"password": "y"}, TypeAPIKey, nil)
	assert.True(t, cerr.Is(err, pandora_err.ErrRevoked))
}

func TestRevokeReleasesPerIDLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "db-creds", map[string]interface{}{"password": "x"})
	_, held := f.manager.locks.Load("db-creds")
	assert.True(t, held)

	ok, err := f.manager.RevokeSecret(ctx, "db-creds")
	require.NoError(t, err)
	assert.True(t, ok)

	// A terminal secret must not pin a mutex for the life of the process.
	_, held = f.manager.locks.Load("db-creds")
	assert.False(t, held)
}

func TestRevokeMissingSecret(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.RevokeSecret(context.Background(), "missing")
	assert.True(t, cerr.Is(err, pandora_err.ErrNotFound))
}

func TestCacheServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})

	_, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	_, err = f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)

	snap := f.rec.Counters()
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.Equal(t, int64(1), snap.CacheHits)
}

func TestMutationsInvalidateCacheSynchronously(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "before"})
	_, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)

	_, err = f.manager.StoreSecret(ctx, "svc-token", map[string]interface{}{"value": "after"}, TypeAPIKey, nil)
	require.NoError(t, err)

	got, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, "after", got["value"], "stale cache entry served after store")

	_, err = f.manager.RotateSecret(ctx, "svc-token")
	require.NoError(t, err)
	rotated, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.NotEqual(t, "after", rotated["value"], "stale cache entry served after rotation")
}

func TestReadsWorkWithoutCache(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	engine, err := crypto.NewEngine(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	manager, err := NewManager(Options{
		Store:  ms,
		Engine: engine,
		Ledger: audit.NewLedger(nil),
	})
	require.NoError(t, err)

	payload := map[string]interface{}{"value": "x"}
	_, err = manager.StoreSecret(ctx, "svc-token", payload, TypeAPIKey, nil)
	require.NoError(t, err)

	got, err := manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEveryMutationIsAuditedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"value": "x"})
	_, err := f.manager.RotateSecret(ctx, "svc-token")
	require.NoError(t, err)
	_, err = f.manager.RevokeSecret(ctx, "svc-token")
	require.NoError(t, err)

	// A failed mutation is audited too.
	_, err = f.manager.StoreSecret(ctx, "svc-token", map[string]interface{}{"value": "y"}, TypeAPIKey, nil)
	require.Error(t, err)

	assert.Len(t, f.ledger.Query(ctx, audit.Filter{Action: audit.ActionStore}), 2)
	assert.Len(t, f.ledger.Query(ctx, audit.Filter{Action: audit.ActionRotate}), 1)
	assert.Len(t, f.ledger.Query(ctx, audit.Filter{Action: audit.ActionRevoke}), 1)

	stores := f.ledger.Query(ctx, audit.Filter{Action: audit.ActionStore})
	assert.True(t, stores[0].Success)
	assert.False(t, stores[1].Success)
	assert.Contains(t, stores[1].ErrorMessage, "revoked")
}

func TestAuditEventsNeverContainSecretValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "svc-token", map[string]interface{}{"token": "super-sensitive-value"})
	_, err := f.manager.GetSecret(ctx, "svc-token")
	require.NoError(t, err)

	for _, event := range f.ledger.Query(ctx, audit.Filter{}) {
		raw, err := json.Marshal(event)
		require.NoError(t, err)
		assert.False(t, strings.Contains(string(raw), "super-sensitive-value"),
			"secret value leaked into audit event %s", event.EventID)
	}
}

func TestListSecretsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.StoreSecret(ctx, "zeta", map[string]interface{}{"v": "1"}, TypeAPIKey, nil)
	require.NoError(t, err)
	_, err = f.manager.StoreSecret(ctx, "alpha", map[string]interface{}{"v": "2"}, TypeDatabasePassword, nil)
	require.NoError(t, err)
	_, err = f.manager.StoreSecret(ctx, "mike", map[string]interface{}{"v": "3"}, TypeAPIKey, nil)
	require.NoError(t, err)

	all, err := f.manager.ListSecrets(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].SecretID)
	assert.Equal(t, "mike", all[1].SecretID)
	assert.Equal(t, "zeta", all[2].SecretID)

	apiKeys, err := f.manager.ListSecrets(ctx, TypeAPIKey)
	require.NoError(t, err)
	require.Len(t, apiKeys, 2)
}

func TestListSecretsEmptyStore(t *testing.T) {
	f := newFixture(t)
	metas, err := f.manager.ListSecrets(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestStoreOptionsApplyTagsAndTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	meta, err := f.manager.StoreSecret(ctx, "tagged", map[string]interface{}{"v": "x"}, TypeAPIKey, &StoreOptions{
		Tags:    map[string]string{"team": "platform"},
		TTLDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "platform", meta.Tags["team"])
	require.NotNil(t, meta.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 7), *meta.ExpiresAt, time.Minute)
}

func TestMetricsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustStore(t, "a", map[string]interface{}{"v": "1"})
	f.mustStore(t, "b", map[string]interface{}{"v": "2"})
	_, err := f.manager.RotateSecret(ctx, "a")
	require.NoError(t, err)
	_, err = f.manager.RevokeSecret(ctx, "b")
	require.NoError(t, err)
	_, err = f.manager.GetSecret(ctx, "a")
	require.NoError(t, err)

	snap, err := f.manager.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalSecrets)
	assert.Equal(t, 1, snap.ActiveSecrets)
	assert.Equal(t, int64(1), snap.RotationCount)
	assert.Equal(t, f.ledger.Count(), snap.AuditEventCount)
}

func TestHealthCheckHealthy(t *testing.T) {
	f := newFixture(t)
	report := f.manager.HealthCheck(context.Background())
	assert.True(t, report.StoreReachable)
	assert.True(t, report.CacheReachable)
	assert.True(t, report.Overall)
}

// Worked example: a service API token through its whole life.
func TestServiceTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	payload := map[string]interface{}{"token": "initial-token", "endpoint": "https://svc.internal"}
	meta, err := f.manager.StoreSecret(ctx, "svc-api-token", payload, TypeAPIKey, &StoreOptions{TTLDays: 90})
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Version)

	got, err := f.manager.GetSecret(ctx, "svc-api-token")
	require.NoError(t, err)
	assert.Equal(t, "initial-token", got["token"])

	rotated, err := f.manager.RotateSecret(ctx, "svc-api-token")
	require.NoError(t, err)
	assert.Equal(t, 2, rotated.Version)

	fresh, err := f.manager.GetSecret(ctx, "svc-api-token")
	require.NoError(t, err)
	assert.NotEqual(t, "initial-token", fresh["value"])

	ok, err := f.manager.RevokeSecret(ctx, "svc-api-token")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.manager.GetSecret(ctx, "svc-api-token")
	assert.True(t, cerr.Is(err, pandora_err.ErrRevoked))

	trail := f.manager.AuditEvents(ctx, audit.Filter{SecretID: "svc-api-token"})
	require.Len(t, trail, 6)
	actions := make([]audit.Action, 0, len(trail))
	for _, event := range trail {
		actions = append(actions, event.Action)
	}
	assert.Equal(t, []audit.Action{
		audit.ActionStore,
		audit.ActionRead,
		audit.ActionRotate,
		audit.ActionRead,
		audit.ActionRevoke,
		audit.ActionRead,
	}, actions)
	assert.False(t, trail[5].Success, "the post-revocation read is audited as a failure")
}
