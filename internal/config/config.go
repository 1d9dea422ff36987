package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dori/tasktrackr/internal/db"
)

// Backend modes
const (
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
	ModeRemote   = "remote"
	ModeLegacy   = "legacy"
	ModeDemo     = "demo"
)

// Config is the full tasktrackr configuration
type Config struct {
	DataDir       string              `mapstructure:"data_dir"`
	Theme         string              `mapstructure:"theme"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// BackendConfig selects where rows and accounts live
type BackendConfig struct {
	// Mode is one of sqlite, postgres, remote, legacy or demo
	Mode    string        `mapstructure:"mode"`
	URL     string        `mapstructure:"url"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig configures access tokens for the sqlite and postgres modes
type AuthConfig struct {
	// JWTSecret falls back to a generated key in the data directory
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ServerConfig configures `tasktrackr serve`
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File defaults to tasktrackr.log in the data directory
	File string `mapstructure:"file"`
}

// NotificationsConfig toggles desktop notifications
type NotificationsConfig struct {
	Desktop bool `mapstructure:"desktop"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: db.DefaultDataDir(),
		Theme:   "stardust",
		Backend: BackendConfig{
			Mode:    ModeSQLite,
			Timeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"https://*", "http://*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case ModeSQLite, ModeLegacy, ModeDemo:
	case ModePostgres:
		if c.Backend.DSN == "" {
			return fmt.Errorf("backend.dsn is required in %s mode", ModePostgres)
		}
	case ModeRemote:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required in %s mode", ModeRemote)
		}
	default:
		return fmt.Errorf("unknown backend mode %q", c.Backend.Mode)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// DBPath returns the SQLite database file
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "tasktrackr.db")
}

// LogPath returns the log file location
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, "tasktrackr.log")
}

// SecretPath returns the generated signing key location
func (c *Config) SecretPath() string {
	return filepath.Join(c.DataDir, "jwt.key")
}
