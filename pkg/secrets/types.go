// pkg/secrets/types.go

// Package secrets implements the secret lifecycle manager: versioned,
// encrypted, audited storage of credential material with rotation and
// revocation.
package secrets

import (
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
)

// SecretType classifies the credential material, selecting the generator
// used during rotation.
type SecretType string

const (
	TypeAPIKey           SecretType = "api_key"
	TypeDatabasePassword SecretType = "database_password"
	TypeJWTSecret        SecretType = "jwt_secret"
	TypeEncryptionKey    SecretType = "encryption_key"
	TypeOAuthToken       SecretType = "oauth_token"
	TypeSSHKey           SecretType = "ssh_key"
	TypeCertificate      SecretType = "certificate"
	TypeDynamic          SecretType = "dynamic"
)

// knownTypes is the closed set of valid secret types.
var knownTypes = map[SecretType]struct{}{
	TypeAPIKey:           {},
	TypeDatabasePassword: {},
	TypeJWTSecret:        {},
	TypeEncryptionKey:    {},
	TypeOAuthToken:       {},
	TypeSSHKey:           {},
	TypeCertificate:      {},
	TypeDynamic:          {},
}

// ParseType validates and converts a secret type string.
func ParseType(s string) (SecretType, error) {
	t := SecretType(s)
	if _, ok := knownTypes[t]; !ok {
		return "", cerr.Mark(cerr.Newf("unknown secret type %q", s), pandora_err.ErrInvalidInput)
	}
	return t, nil
}

// Status is a secret's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRotating Status = "rotating"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// transitions is the full lifecycle state machine. Revoked is terminal:
// it has no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:  {StatusActive},
	StatusActive:   {StatusRotating, StatusExpired, StatusRevoked},
	StatusRotating: {StatusActive}, // completion and rollback both land on Active
	StatusExpired:  {StatusRevoked},
	StatusRevoked:  {},
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Metadata is the plaintext record describing one secret. It never contains
// secret material; the encrypted payload lives in a separate data record
// addressed by SecretID and Checksum.
type Metadata struct {
	SecretID             string            `json:"secret_id"`
	Type                 SecretType        `json:"secret_type"`
	Status               Status            `json:"status"`
	CreatedAt            time.Time         `json:"created_at"`
	ExpiresAt            *time.Time        `json:"expires_at,omitempty"`
	LastRotated          *time.Time        `json:"last_rotated,omitempty"`
	RotationIntervalDays int               `json:"rotation_interval_days"`
	Tags                 map[string]string `json:"tags,omitempty"`

	// RotatingSince records when a rotation claimed this record. A claim
	// whose owner died before publishing is detectable by its age and may
	// be retaken by a later rotation.
	RotatingSince *time.Time `json:"rotating_since,omitempty"`

	// Version starts at 1 and increases by exactly 1 on every successful
	// store, rotate, or revoke. Only the latest version is readable.
	Version int `json:"version"`

	// Checksum is the SHA-256 hex digest of the decrypted payload at this
	// version, and addresses the data record holding it.
	Checksum string `json:"checksum"`
}

// expired reports whether the secret's expiry time has passed.
func (m *Metadata) expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}
