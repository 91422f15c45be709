// pkg/pandora_err/errors.go

// Package pandora_err defines the fixed error taxonomy for secret lifecycle
// operations. Callers classify failures with errors.Is against these
// sentinels instead of string matching.
package pandora_err

import (
	cerr "github.com/cockroachdb/errors"
)

var (
	// ErrConnection indicates the backing store or cache is unreachable.
	// Retryable with backoff.
	ErrConnection = cerr.New("backend connection failed")

	// ErrNotFound indicates the requested secret does not exist.
	// Never retried, surfaced immediately.
	ErrNotFound = cerr.New("secret not found")

	// ErrExpired indicates the secret's expiry time has passed.
	ErrExpired = cerr.New("secret expired")

	// ErrRevoked indicates the secret has been revoked. Revoked is terminal.
	ErrRevoked = cerr.New("secret revoked")

	// ErrChecksumMismatch indicates the decrypted payload does not match its
	// stored digest. Tamper or corruption — never silently repaired, always
	// audited as a security event.
	ErrChecksumMismatch = cerr.New("payload checksum mismatch")

	// ErrRotation indicates rotation could not complete (missing generator or
	// write failure). The prior version remains authoritative.
	ErrRotation = cerr.New("rotation failed")

	// ErrConflict indicates a concurrent rotation won the version check-and-set.
	// Retryable.
	ErrConflict = cerr.New("concurrent modification conflict")

	// ErrDecryption indicates ciphertext corruption or an encryption key mismatch.
	ErrDecryption = cerr.New("decryption failed")

	// ErrInvalidInput indicates a malformed secret id, payload, or path.
	ErrInvalidInput = cerr.New("invalid input")

	// ErrPermissionDenied indicates the store credentials lack access.
	// Not retryable: retrying with the same token cannot succeed.
	ErrPermissionDenied = cerr.New("permission denied")
)

// IsRetryable reports whether the caller may retry the operation with backoff.
func IsRetryable(err error) bool {
	return cerr.Is(err, ErrConnection) || cerr.Is(err, ErrConflict)
}

// IsUserError reports whether the failure is an expected caller mistake
// (missing, expired, revoked, malformed input) rather than a system fault.
// User errors are logged without stack traces.
func IsUserError(err error) bool {
	return cerr.Is(err, ErrNotFound) ||
		cerr.Is(err, ErrExpired) ||
		cerr.Is(err, ErrRevoked) ||
		cerr.Is(err, ErrInvalidInput)
}

// IsSecurityEvent reports whether the failure must be escalated in the audit
// ledger (integrity violations).
func IsSecurityEvent(err error) bool {
	return cerr.Is(err, ErrChecksumMismatch) || cerr.Is(err, ErrDecryption)
}
