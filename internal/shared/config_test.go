package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path == "" {
			t.Error("expected default database path")
		}
		if config.Remote.BaseURL == "" {
			t.Error("expected default remote base URL")
		}
		if config.Remote.Timeout() <= 0 {
			t.Error("expected positive remote timeout")
		}
		if config.Server.Addr() == ":0" {
			t.Error("expected default server address")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[database]
path = "test.db"
max_open_conns = 3

[remote]
base_url = "http://remote.example.com"
timeout_seconds = 3
rate_limit = 2.5

[auth]
token = "file-token"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "test.db" {
			t.Errorf("expected database path test.db, got %s", config.Database.Path)
		}
		if config.Remote.BaseURL != "http://remote.example.com" {
			t.Errorf("unexpected remote base URL %s", config.Remote.BaseURL)
		}
		if config.Remote.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.Remote.RateLimit)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Env Override", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		if err := os.WriteFile(path, []byte("[auth]\ntoken = \"file-token\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		t.Setenv("LISTSYNC_TOKEN", "env-token")

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Auth.Token != "env-token" {
			t.Errorf("expected env token to win, got %s", config.Auth.Token)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created config should be loadable: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})
}
