package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend.Mode != ModeSQLite {
		t.Errorf("Expected sqlite mode, got '%s'", cfg.Backend.Mode)
	}
	if cfg.Theme != "stardust" {
		t.Errorf("Expected stardust theme, got '%s'", cfg.Theme)
	}
	if cfg.Notifications.Desktop {
		t.Error("Expected desktop notifications to be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config is invalid: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `theme: dracula
backend:
  mode: remote
  url: http://localhost:9090
  timeout: 3s
server:
  allowed_origins:
    - https://board.example.com
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("TASKTRACKR_DATA_DIR", dir)
	t.Setenv("TASKTRACKR_LOG_FORMAT", "json")
	t.Setenv("TASKTRACKR_BACKEND_URL", "http://example.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Theme != "dracula" {
		t.Errorf("Expected theme from file, got '%s'", cfg.Theme)
	}
	if cfg.Backend.Mode != ModeRemote || cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Backend.URL != "http://example.test" {
		t.Errorf("Expected env to override file, got '%s'", cfg.Backend.URL)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log config: %+v", cfg.Log)
	}
	if cfg.DataDir != dir || cfg.DBPath() != filepath.Join(dir, "tasktrackr.db") {
		t.Errorf("Unexpected data dir: %s", cfg.DataDir)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://board.example.com" {
		t.Errorf("Expected origins from file, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Auth.TokenTTL != 72*time.Hour {
		t.Errorf("Expected default token ttl, got %v", cfg.Auth.TokenTTL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"demo", func(c *Config) { c.Backend.Mode = ModeDemo }, false},
		{"remote without url", func(c *Config) { c.Backend.Mode = ModeRemote }, true},
		{"postgres without dsn", func(c *Config) { c.Backend.Mode = ModePostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.Backend.Mode = ModePostgres
			c.Backend.DSN = "postgres://localhost/tasktrackr"
		}, false},
		{"unknown mode", func(c *Config) { c.Backend.Mode = "firebase" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	if got := cfg.LogPath(); got != filepath.Join("/data", "tasktrackr.log") {
		t.Errorf("Unexpected log path %s", got)
	}
	cfg.Log.File = "/var/log/tt.log"
	if got := cfg.LogPath(); got != "/var/log/tt.log" {
		t.Errorf("Expected configured log file, got %s", got)
	}
}
