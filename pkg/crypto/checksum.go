// pkg/crypto/checksum.go

package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	cerr "github.com/cockroachdb/errors"
)

// Checksum returns the SHA-256 hex digest over the canonical encoding of the
// plaintext payload. encoding/json sorts map keys at every nesting level, so
// the digest is stable across field insertion order. Compute before
// encryption; the stored value binds metadata to payload content.
func Checksum(payload map[string]interface{}) (string, error) {
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", cerr.Wrap(err, "failed to canonicalize payload")
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChecksum reports whether the payload matches the stored digest.
func VerifyChecksum(payload map[string]interface{}, digest string) bool {
	actual, err := Checksum(payload)
	if err != nil {
		return false
	}
	return actual == digest
}
