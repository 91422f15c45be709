// pkg/crypto/engine.go

// Package crypto provides field-level payload encryption and integrity
// digests for secret material.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
)

// Engine encrypts and decrypts individual payload fields with AES-GCM under
// a process-held symmetric key. Every encryption uses a fresh random nonce,
// so equal plaintexts never produce equal ciphertexts across rotations.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine creates an Engine from a raw AES key (16, 24, or 32 bytes).
func NewEngine(key []byte) (*Engine, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to create GCM")
	}

	return &Engine{aead: gcm}, nil
}

// EncryptField encrypts a single string field. The result is
// base64(nonce || sealed) and is safe to embed in JSON.
func (e *Engine) EncryptField(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", cerr.Wrap(err, "failed to generate nonce")
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptField reverses EncryptField. Corrupted ciphertext or a key mismatch
// fails with ErrDecryption.
func (e *Engine) DecryptField(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", cerr.Mark(cerr.Wrap(err, "ciphertext is not valid base64"), pandora_err.ErrDecryption)
	}

	nonceSize := e.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", cerr.Mark(cerr.New("ciphertext too short"), pandora_err.ErrDecryption)
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", cerr.Mark(cerr.Wrap(err, "authenticated decryption failed"), pandora_err.ErrDecryption)
	}

	return string(plaintext), nil
}

// EncryptPayload applies field-level encryption to every string leaf of the
// payload, recursing into nested maps and arrays so no plaintext string
// survives at rest. Non-string scalars pass through unchanged.
func (e *Engine) EncryptPayload(payload map[string]interface{}) (map[string]interface{}, error) {
	out, err := e.encryptValue(payload)
	if err != nil {
		return nil, err
	}
	return out.(map[string]interface{}), nil
}

// DecryptPayload reverses EncryptPayload.
func (e *Engine) DecryptPayload(payload map[string]interface{}) (map[string]interface{}, error) {
	out, err := e.decryptValue(payload)
	if err != nil {
		return nil, err
	}
	return out.(map[string]interface{}), nil
}

func (e *Engine) encryptValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.EncryptField(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			enc, err := e.encryptValue(inner)
			if err != nil {
				return nil, cerr.Wrapf(err, "failed to encrypt field %q", key)
			}
			out[key] = enc
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			enc, err := e.encryptValue(inner)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	default:
		return v, nil
	}
}

func (e *Engine) decryptValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.DecryptField(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			dec, err := e.decryptValue(inner)
			if err != nil {
				return nil, cerr.Wrapf(err, "failed to decrypt field %q", key)
			}
			out[key] = dec
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			dec, err := e.decryptValue(inner)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	default:
		return v, nil
	}
}

// SecureZero overwrites a byte slice to reduce the chance of sensitive data
// lingering in memory.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
