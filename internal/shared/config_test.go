package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./hsrx.db" {
			t.Errorf("expected database path ./hsrx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Metadata.DefaultLocale != "enUS" {
			t.Errorf("expected default locale enUS, got %s", config.Metadata.DefaultLocale)
		}

		if config.Metadata.Backend != "sqlite" {
			t.Errorf("expected sqlite metadata backend, got %s", config.Metadata.Backend)
		}

		if config.Metrics.Interval() != 15*time.Second {
			t.Errorf("expected 15s metrics interval, got %v", config.Metrics.Interval())
		}

		if config.Metadata.RedisTTL() != 0 {
			t.Errorf("expected no redis ttl, got %v", config.Metadata.RedisTTL())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "http://localhost:3000"
username = "rdu"
timeout_seconds = 5

[metadata]
locale = "frFR"
redis_ttl_hours = 48

[server]
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.Username != "rdu" {
			t.Errorf("expected username rdu, got %s", config.API.Username)
		}
		if config.API.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.API.Timeout())
		}
		if config.Metadata.Locale != "frFR" {
			t.Errorf("expected locale frFR, got %s", config.Metadata.Locale)
		}
		if config.Metadata.RedisTTL() != 48*time.Hour {
			t.Errorf("expected 48h redis ttl, got %v", config.Metadata.RedisTTL())
		}
		if config.Metadata.DefaultLocale != "enUS" {
			t.Errorf("unset keys should keep defaults, got default locale %q", config.Metadata.DefaultLocale)
		}
		if config.Server.Addr() != "127.0.0.1:8080" {
			t.Errorf("expected 127.0.0.1:8080, got %s", config.Server.Addr())
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := SaveEnv(envPath, map[string]string{EnvAPIToken: "abc123"}); err != nil {
			t.Fatalf("failed to save env: %v", err)
		}

		t.Setenv(EnvAPIToken, "")
		t.Setenv(EnvUsername, "from-env")
		os.Unsetenv(EnvAPIToken)

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.API.Token != "abc123" {
			t.Errorf("expected token from .env, got %q", config.API.Token)
		}
		if config.API.Username != "from-env" {
			t.Errorf("expected username from environment, got %q", config.API.Username)
		}
	})
}
