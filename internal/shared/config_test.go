package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Database.Path == "" {
		t.Error("expected default database path")
	}
	if config.Server.Port == 0 {
		t.Error("expected default server port")
	}
	if config.Migration.MaxAttempts != 5 {
		t.Errorf("expected 5 default attempts, got %d", config.Migration.MaxAttempts)
	}
	if config.Migration.StatusRetentionHours != 28 {
		t.Errorf("expected 28h default retention, got %d", config.Migration.StatusRetentionHours)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("parses a full config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.google]
client_id = "client-123"
client_secret = "secret-456"
redirect_uri = "http://localhost:5333/callback"

[database]
path = "test.db"
max_open_conns = 5
max_idle_conns = 2

[server]
host = "localhost"
port = 5333

[migration]
max_attempts = 3
base_delay_seconds = 1
rate_limit_per_second = 4.0
status_retention_hours = 12
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}

		if config.Credentials.Google.ClientID != "client-123" {
			t.Errorf("unexpected client id %q", config.Credentials.Google.ClientID)
		}
		if config.Database.Path != "test.db" {
			t.Errorf("unexpected database path %q", config.Database.Path)
		}
		if config.Migration.MaxAttempts != 3 {
			t.Errorf("unexpected max attempts %d", config.Migration.MaxAttempts)
		}
		if config.Migration.RateLimitPerSecond != 4.0 {
			t.Errorf("unexpected rate limit %f", config.Migration.RateLimitPerSecond)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid TOML returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile failed: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config does not parse: %v", err)
	}
	if config.Server.Port != DefaultConfig().Server.Port {
		t.Error("created config differs from embedded defaults")
	}
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}
	second, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}

	if len(first) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(first))
	}
	if first == second {
		t.Error("expected distinct state tokens")
	}
}
