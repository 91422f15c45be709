// pkg/config/config.go

// Package config loads pandora settings from environment variables
// (PANDORA_* prefix) and an optional config file, with secure defaults.
package config

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config carries everything needed to wire a manager and its workers.
type Config struct {
	VaultAddr  string `mapstructure:"vault_addr" validate:"omitempty,url"`
	VaultToken string `mapstructure:"vault_token"`
	VaultMount string `mapstructure:"vault_mount" validate:"required"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`

	// EncryptionKey is the base64-encoded AES key (16, 24, or 32 bytes
	// decoded) held by the process. Key management beyond "a symmetric key
	// is available" is out of scope.
	EncryptionKey string `mapstructure:"encryption_key"`

	Actor string `mapstructure:"actor"`

	RotationIntervalDays int           `mapstructure:"rotation_interval_days" validate:"gt=0"`
	BackupRetentionDays  int           `mapstructure:"backup_retention_days" validate:"gt=0"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	OperationTimeout     time.Duration `mapstructure:"operation_timeout" validate:"gt=0"`
	ScanInterval         time.Duration `mapstructure:"scan_interval" validate:"gt=0"`
	BackupInterval       time.Duration `mapstructure:"backup_interval" validate:"gt=0"`
}

// Load reads configuration from /etc/pandora/pandora.yaml (or the working
// directory) and PANDORA_* environment variables. Environment wins.
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a registered default (empty is fine) or AutomaticEnv
	// will not surface its environment variable through Unmarshal.
	v.SetDefault("vault_addr", "")
	v.SetDefault("vault_token", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("encryption_key", "")
	v.SetDefault("vault_mount", "pandora")
	v.SetDefault("actor", "pandora")
	v.SetDefault("rotation_interval_days", 90)
	v.SetDefault("backup_retention_days", 30)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("operation_timeout", 10*time.Second)
	v.SetDefault("scan_interval", time.Hour)
	v.SetDefault("backup_interval", 24*time.Hour)

	v.SetConfigName("pandora")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/pandora")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PANDORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !cerr.As(err, &notFound) {
			return nil, cerr.Wrap(err, "failed to read config file")
		}
		// No config file is fine; environment and defaults carry it.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cerr.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants an operator most commonly breaks. The
// structural rules live in `validate:` tags; the key length and encoding
// rule needs the decode and stays in code.
func (c *Config) Validate() error {
	if c.EncryptionKey != "" {
		if _, err := c.DecodeEncryptionKey(); err != nil {
			return err
		}
	}
	if err := validator.New().Struct(c); err != nil {
		return cerr.Mark(cerr.Wrap(err, "invalid configuration"), pandora_err.ErrInvalidInput)
	}
	return nil
}

// DecodeEncryptionKey returns the raw AES key bytes.
func (c *Config) DecodeEncryptionKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, cerr.Mark(cerr.Wrap(err, "encryption key is not valid base64"), pandora_err.ErrInvalidInput)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, cerr.Mark(cerr.Newf("encryption key must decode to 16, 24, or 32 bytes, got %d", len(key)), pandora_err.ErrInvalidInput)
	}
}
