package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Fetch backends
const (
	BackendWget = "wget"
	BackendHTTP = "http"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Security  SecurityConfig
	Fetch     FetchConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StorageConfig holds the browsed tree and staging locations.
type StorageConfig struct {
	RootDir      string   `envconfig:"ROOT_DIR" default:"models"`
	StagingDir   string   `envconfig:"STAGING_DIR" default:"/tmp"`
	ScanMaxDepth int      `envconfig:"SCAN_MAX_DEPTH" default:"0"`
	ScanExclude  []string `envconfig:"SCAN_EXCLUDE"`
}

// SecurityConfig holds the shared secret for mutating endpoints.
type SecurityConfig struct {
	Token string `envconfig:"SECURITY_TOKEN"`
}

// FetchConfig holds download settings.
type FetchConfig struct {
	Backend string        `envconfig:"FETCH_BACKEND" default:"wget"`
	Tool    string        `envconfig:"FETCH_TOOL" default:"wget"`
	Timeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"300s"`
	Tries   int           `envconfig:"FETCH_TRIES" default:"3"`

	// Per-host circuit breaker; 0 failures disables it
	BreakerFailures int           `envconfig:"FETCH_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"FETCH_BREAKER_COOLDOWN" default:"60s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration. The security token has no default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			RootDir:    "models",
			StagingDir: "/tmp",
		},
		Fetch: FetchConfig{
			Backend: BackendWget,
			Tool:    "wget",
			Timeout: 300 * time.Second,
			Tries:   3,

			BreakerFailures: 5,
			BreakerCooldown: 60 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}

// Validate checks settings that must hold before serving and creates the
// staging directory if needed.
func (c *Config) Validate() error {
	root, err := filepath.Abs(c.Storage.RootDir)
	if err != nil {
		return fmt.Errorf("root directory %q: %w", c.Storage.RootDir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root directory %q does not exist: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root directory %q is not a directory", root)
	}

	if c.Security.Token == "" {
		return errors.New("SECURITY_TOKEN is required")
	}

	switch c.Fetch.Backend {
	case BackendWget, BackendHTTP:
	default:
		return fmt.Errorf("unknown fetch backend %q (want %q or %q)", c.Fetch.Backend, BackendWget, BackendHTTP)
	}
	if c.Fetch.Tries < 1 {
		return fmt.Errorf("fetch tries must be at least 1, got %d", c.Fetch.Tries)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.BreakerFailures < 0 {
		return fmt.Errorf("fetch breaker failures must not be negative, got %d", c.Fetch.BreakerFailures)
	}
	if c.Fetch.BreakerFailures > 0 && c.Fetch.BreakerCooldown <= 0 {
		return fmt.Errorf("fetch breaker cooldown must be positive, got %s", c.Fetch.BreakerCooldown)
	}
	if c.Storage.ScanMaxDepth < 0 {
		return fmt.Errorf("scan max depth must not be negative, got %d", c.Storage.ScanMaxDepth)
	}

	if err := os.MkdirAll(c.Storage.StagingDir, 0o755); err != nil {
		return fmt.Errorf("staging directory %q: %w", c.Storage.StagingDir, err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
