package config

import (
	"errors"
	"os"
	"testing"
)

func TestLoadMasterSecret(t *testing.T) {
	t.Setenv(masterSecretEnv, "super-secret-value")

	enclave, err := LoadMasterSecret()
	if err != nil {
		t.Fatalf("LoadMasterSecret failed: %v", err)
	}

	if os.Getenv(masterSecretEnv) != "" {
		t.Error("master secret should be cleared from the environment")
	}

	buf, err := enclave.Open()
	if err != nil {
		t.Fatalf("opening enclave: %v", err)
	}
	defer buf.Destroy()
	if string(buf.Bytes()) != "super-secret-value" {
		t.Error("enclave does not hold the supplied secret")
	}
}

func TestLoadMasterSecretMissing(t *testing.T) {
	t.Setenv(masterSecretEnv, "")

	_, err := LoadMasterSecret()
	if !errors.Is(err, ErrNoMasterSecret) {
		t.Errorf("expected ErrNoMasterSecret, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEGACY_DATABASE_URL", "postgres://legacy/db")
	t.Setenv("DEST_QUERY_URL", "https://dest.example.com/query")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputPath != "migration.sql" {
		t.Errorf("expected default output path, got %q", cfg.OutputPath)
	}
	if cfg.JournalPath != "" {
		t.Errorf("journal should default to disabled, got %q", cfg.JournalPath)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	os.Unsetenv("LEGACY_DATABASE_URL")
	os.Unsetenv("DEST_QUERY_URL")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing required configuration")
	}
}
