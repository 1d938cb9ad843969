package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RELAYKEY_MODE", "RELAYKEY_BIND_ADDR", "DATABASE_URL", "REDIS_URL",
		"LOG_LEVEL", "RELAYKEY_LOG", "RELAYKEY_KEY_SALT", "ADMIN_TOKEN",
		"RELAYKEY_REQUEST_TIMEOUT", "RELAYKEY_MAX_BODY_BYTES",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadRequiresKeySalt(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load to fail without RELAYKEY_KEY_SALT")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("RELAYKEY_KEY_SALT", "test-salt")
	defer os.Unsetenv("RELAYKEY_KEY_SALT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "api" {
		t.Errorf("expected default mode api, got %q", cfg.Mode)
	}
	if cfg.MaxBodyBytes != 2097152 {
		t.Errorf("expected default 2MiB body limit, got %d", cfg.MaxBodyBytes)
	}
	if cfg.RequestTimeout.Seconds() != 30 {
		t.Errorf("expected default 30s request timeout, got %v", cfg.RequestTimeout)
	}
}
