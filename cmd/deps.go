// cmd/deps.go

package cmd

import (
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/cache"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/config"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/crypto"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/metrics"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/secrets"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/store"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// runtime bundles everything a command needs: the manager plus the wired
// collaborators for commands that talk to them directly.
type runtime struct {
	cfg      *config.Config
	st       store.Store
	cache    cache.Cache
	ledger   *audit.Ledger
	recorder *metrics.Recorder
	manager  *secrets.Manager
}

// buildRuntime loads config and wires the full dependency graph. Vault and
// Redis are used when configured; otherwise the in-memory store and cache
// carry local and test usage.
func buildRuntime(rc *pandora_io.RuntimeContext) (*runtime, error) {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey == "" {
		return nil, cerr.Mark(cerr.New("encryption key not configured (set PANDORA_ENCRYPTION_KEY)"), pandora_err.ErrInvalidInput)
	}
	key, err := cfg.DecodeEncryptionKey()
	if err != nil {
		return nil, err
	}
	engine, err := crypto.NewEngine(key)
	crypto.SecureZero(key)
	if err != nil {
		return nil, err
	}

	var base store.Store
	if cfg.VaultAddr != "" {
		client, err := store.NewVaultClient(cfg.VaultAddr, cfg.VaultToken)
		if err != nil {
			return nil, err
		}
		base = store.NewVaultStore(client, cfg.VaultMount)
	} else {
		logger.Warn("No vault_addr configured, using in-memory store; data will not survive the process")
		base = store.NewMemoryStore()
	}
	st := store.NewBreakerStore(base)

	var c cache.Cache
	if cfg.RedisAddr != "" {
		c = cache.NewRedisCache(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	} else {
		c = cache.NewMemoryCache()
	}

	// Rehydrate the audit trail persisted by earlier runs; new events keep
	// flowing into the same store.
	ledger, err := audit.LoadLedger(rc.Ctx, st)
	if err != nil {
		return nil, err
	}
	recorder := metrics.NewRecorder()

	manager, err := secrets.NewManager(secrets.Options{
		Store:                       st,
		Cache:                       c,
		Engine:                      engine,
		Ledger:                      ledger,
		Metrics:                     recorder,
		Actor:                       cfg.Actor,
		DefaultRotationIntervalDays: cfg.RotationIntervalDays,
		CacheTTL:                    cfg.CacheTTL,
		Timeout:                     cfg.OperationTimeout,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Runtime wired",
		zap.String("store", st.Name()),
		zap.Bool("redis", cfg.RedisAddr != ""))

	return &runtime{
		cfg:      cfg,
		st:       st,
		cache:    c,
		ledger:   ledger,
		recorder: recorder,
		manager:  manager,
	}, nil
}
