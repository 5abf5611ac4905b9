// Package config loads runtime configuration from the environment. The
// master secret gets special handling: it is accepted only via the
// environment (never a flag or file, to keep it out of shell history and
// process listings), moved into a memguard enclave immediately, and the
// environment variable is cleared.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/kelseyhightower/envconfig"
)

const masterSecretEnv = "MIGRATION_MASTER_KEY"

// ErrNoMasterSecret indicates MIGRATION_MASTER_KEY was unset or empty.
var ErrNoMasterSecret = errors.New("config: " + masterSecretEnv + " is not set")

// Config holds everything a run needs except the master secret.
type Config struct {
	LegacyDatabaseURL string `envconfig:"LEGACY_DATABASE_URL" required:"true"`
	DestQueryURL      string `envconfig:"DEST_QUERY_URL" required:"true"`
	DestAPIToken      string `envconfig:"DEST_API_TOKEN"`
	OutputPath        string `envconfig:"OUTPUT_PATH" default:"migration.sql"`
	JournalPath       string `envconfig:"JOURNAL_PATH"`
}

// Load processes configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	return cfg, nil
}

// LoadMasterSecret moves the master secret out of the environment and into
// an encrypted-at-rest memguard enclave. Callers open the enclave per use
// and destroy the resulting buffer immediately after.
func LoadMasterSecret() (*memguard.Enclave, error) {
	v := os.Getenv(masterSecretEnv)
	os.Unsetenv(masterSecretEnv)
	if v == "" {
		return nil, ErrNoMasterSecret
	}
	// NewBufferFromBytes wipes the copy it is handed.
	return memguard.NewBufferFromBytes([]byte(v)).Seal(), nil
}
