// pkg/secrets/generators.go

package secrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
)

// GeneratorFunc produces replacement payload material during rotation. It
// receives the current metadata so generators can honor tags or type
// specifics. Rotation fails with ErrRotation when no generator is
// registered for the secret's type.
type GeneratorFunc func(ctx context.Context, meta *Metadata) (map[string]interface{}, error)

// defaultGenerators covers every built-in secret type with a random-material
// generator producing a single "value" field. Services with richer payload
// shapes register their own via RegisterGenerator.
func defaultGenerators() map[SecretType]GeneratorFunc {
	return map[SecretType]GeneratorFunc{
		TypeAPIKey:           valueGenerator(44),
		TypeDatabasePassword: passwordGenerator(20),
		TypeJWTSecret:        valueGenerator(64),
		TypeEncryptionKey:    valueGenerator(32),
		TypeOAuthToken:       valueGenerator(64),
		TypeSSHKey:           valueGenerator(64),
		TypeCertificate:      valueGenerator(64),
		TypeDynamic:          valueGenerator(32),
	}
}

// valueGenerator returns a generator producing base64 random material of the
// given byte length under the "value" key.
func valueGenerator(byteLen int) GeneratorFunc {
	return func(ctx context.Context, meta *Metadata) (map[string]interface{}, error) {
		value, err := randomBase64(byteLen)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"value": value}, nil
	}
}

// passwordGenerator returns a generator producing a printable password drawn
// from a mixed character set.
func passwordGenerator(length int) GeneratorFunc {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	return func(ctx context.Context, meta *Metadata) (map[string]interface{}, error) {
		raw := make([]byte, length)
		if _, err := rand.Read(raw); err != nil {
			return nil, cerr.Mark(cerr.Wrap(err, "failed to generate random bytes"), pandora_err.ErrRotation)
		}
		password := make([]byte, length)
		for i, b := range raw {
			password[i] = charset[int(b)%len(charset)]
		}
		return map[string]interface{}{"value": string(password)}, nil
	}
}

func randomBase64(byteLen int) (string, error) {
	raw := make([]byte, byteLen)
	if _, err := rand.Read(raw); err != nil {
		return "", cerr.Mark(cerr.Wrap(err, "failed to generate random bytes"), pandora_err.ErrRotation)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
