// Package config assembles runtime configuration from three layers:
// built-in defaults, an optional YAML file, and environment variables
// (highest precedence). A .env file, when present, is loaded into the
// environment by the CLI entrypoint before Load runs.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	// EndpointURL is the deployed RPC endpoint.
	EndpointURL string `env:"DDZ_ENDPOINT_URL"`
	// APISecret is the shared HMAC key. Empty disables signing, which
	// the endpoint then rejects for mutating actions.
	APISecret string `env:"DDZ_API_SECRET"`
	// AppVersion travels with every request for server-side telemetry.
	AppVersion string `env:"DDZ_APP_VERSION"`
	// DBPath is the SQLite file backing the local KV store.
	DBPath string `env:"DDZ_DB_PATH"`
	// Timeout bounds every remote call.
	Timeout time.Duration `env:"DDZ_TIMEOUT"`
	// SyncInterval is the watch-mode health-check cadence.
	SyncInterval time.Duration `env:"DDZ_SYNC_INTERVAL"`
	// LogLevel filters slog output.
	LogLevel slog.Level `env:"DDZ_LOG_LEVEL"`
}

// fileConfig is the YAML shape. Durations and the log level travel as
// strings because yaml.v3 has no native decoding for them.
type fileConfig struct {
	EndpointURL  string `yaml:"endpoint_url"`
	APISecret    string `yaml:"api_secret"`
	AppVersion   string `yaml:"app_version"`
	DBPath       string `yaml:"db_path"`
	Timeout      string `yaml:"timeout"`
	SyncInterval string `yaml:"sync_interval"`
	LogLevel     string `yaml:"log_level"`
}

func (f fileConfig) apply(cfg *Config) error {
	if f.EndpointURL != "" {
		cfg.EndpointURL = f.EndpointURL
	}
	if f.APISecret != "" {
		cfg.APISecret = f.APISecret
	}
	if f.AppVersion != "" {
		cfg.AppVersion = f.AppVersion
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", f.Timeout, err)
		}
		cfg.Timeout = d
	}
	if f.SyncInterval != "" {
		d, err := time.ParseDuration(f.SyncInterval)
		if err != nil {
			return fmt.Errorf("invalid sync_interval %q: %w", f.SyncInterval, err)
		}
		cfg.SyncInterval = d
	}
	if f.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.LogLevel)); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", f.LogLevel, err)
		}
	}
	return nil
}

// Defaults returns the built-in configuration baseline.
func Defaults() Config {
	return Config{
		AppVersion:   "2.0.58",
		Timeout:      30 * time.Second,
		SyncInterval: 30 * time.Second,
		LogLevel:     slog.LevelInfo,
	}
}

// Load builds the configuration. Later layers win: defaults, then the
// YAML file (the given path, or the conventional location when it
// exists), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		if _, err := os.Stat(defaultFile()); err == nil {
			path = defaultFile()
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		if err := fc.apply(&cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("endpoint URL is not configured (set DDZ_ENDPOINT_URL or endpoint_url)")
	}
	return &cfg, nil
}

// defaultFile is the conventional config location.
func defaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ddzledger.yaml"
	}
	return filepath.Join(home, ".config", "ddzledger", "config.yaml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ddzledger.db"
	}
	return filepath.Join(home, ".local", "share", "ddzledger", "ledger.db")
}
