// pkg/store/vault_store.go

package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
	vaultapi "github.com/hashicorp/vault/api"
)

// payloadKey is the single KV v2 field carrying the record bytes.
const payloadKey = "payload"

// VaultStore implements Store on the HashiCorp Vault KV v2 secret engine.
//
// Record bytes are wrapped as {"payload": base64} inside a KV v2 secret so
// arbitrary byte content survives Vault's JSON transport. The vault/api
// client is thread-safe, so VaultStore is too.
type VaultStore struct {
	client *vaultapi.Client
	mount  string
}

// NewVaultStore creates a VaultStore on an authenticated Vault client.
// The mount must be a KV v2 mount (typically "secret").
func NewVaultStore(client *vaultapi.Client, mount string) *VaultStore {
	return &VaultStore{client: client, mount: mount}
}

// NewVaultClient builds a Vault API client for the given address and token.
// VAULT_* environment variables are honored as a baseline; explicit
// arguments win.
func NewVaultClient(addr, token string) (*vaultapi.Client, error) {
	cfg := vaultapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to create Vault client")
	}
	if token != "" {
		client.SetToken(token)
	}
	return client, nil
}

func (vs *VaultStore) Put(ctx context.Context, path string, data []byte) error {
	if path == "" {
		return cerr.Mark(cerr.New("path cannot be empty"), pandora_err.ErrInvalidInput)
	}

	_, err := vs.client.KVv2(vs.mount).Put(ctx, path, map[string]interface{}{
		payloadKey: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return wrapVaultError(err, "failed to store record at %s", path)
	}
	return nil
}

func (vs *VaultStore) Get(ctx context.Context, path string) ([]byte, error) {
	kvSecret, err := vs.client.KVv2(vs.mount).Get(ctx, path)
	if err != nil {
		if isVaultNotFoundError(err) {
			return nil, cerr.Mark(cerr.Newf("no record at %s", path), pandora_err.ErrNotFound)
		}
		return nil, wrapVaultError(err, "failed to read record at %s", path)
	}

	// Vault KV v2 can return a nil secret without an error.
	if kvSecret == nil || kvSecret.Data == nil {
		return nil, cerr.Mark(cerr.Newf("no record at %s", path), pandora_err.ErrNotFound)
	}

	encoded, ok := kvSecret.Data[payloadKey].(string)
	if !ok {
		return nil, cerr.Newf("record at %s has unexpected shape: missing %q field", path, payloadKey)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, cerr.Wrapf(err, "record at %s is not valid base64", path)
	}
	return data, nil
}

func (vs *VaultStore) List(ctx context.Context, prefix string) ([]string, error) {
	// KV v2 listing goes through the metadata path.
	listPath := fmt.Sprintf("%s/metadata/%s", vs.mount, strings.TrimSuffix(prefix, "/"))

	secret, err := vs.client.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, wrapVaultError(err, "failed to list records under %s", prefix)
	}
	if secret == nil || secret.Data == nil {
		return []string{}, nil
	}

	keysRaw, ok := secret.Data["keys"]
	if !ok {
		return []string{}, nil
	}
	keysSlice, ok := keysRaw.([]interface{})
	if !ok {
		return nil, cerr.Newf("unexpected keys type from Vault: %T", keysRaw)
	}

	keys := make([]string, 0, len(keysSlice))
	for _, keyRaw := range keysSlice {
		if keyStr, ok := keyRaw.(string); ok {
			keys = append(keys, keyStr)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (vs *VaultStore) Delete(ctx context.Context, path string) error {
	err := vs.client.KVv2(vs.mount).Delete(ctx, path)
	if err != nil {
		// Idempotent: deleting a missing record is success.
		if isVaultNotFoundError(err) {
			return nil
		}
		return wrapVaultError(err, "failed to delete record at %s", path)
	}
	return nil
}

func (vs *VaultStore) Name() string {
	return "vault"
}

// wrapVaultError classifies a Vault API error into the pandora taxonomy.
func wrapVaultError(err error, format string, args ...interface{}) error {
	wrapped := cerr.Wrapf(err, format, args...)
	if isVaultPermissionError(err) {
		return cerr.Mark(wrapped, pandora_err.ErrPermissionDenied)
	}
	return cerr.Mark(wrapped, pandora_err.ErrConnection)
}

// isVaultNotFoundError checks if the error indicates a 404.
func isVaultNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var respErr *vaultapi.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 404
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "not found") ||
		strings.Contains(errMsg, "no value found") ||
		strings.Contains(errMsg, "does not exist")
}

// isVaultPermissionError checks if the error indicates a 403.
func isVaultPermissionError(err error) bool {
	if err == nil {
		return false
	}

	var respErr *vaultapi.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 403
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "permission denied") ||
		strings.Contains(errMsg, "access denied") ||
		strings.Contains(errMsg, "forbidden")
}
