package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"PORT", "HOST",
	"ROOT_DIR", "STAGING_DIR", "SCAN_MAX_DEPTH", "SCAN_EXCLUDE",
	"SECURITY_TOKEN",
	"FETCH_BACKEND", "FETCH_TOOL", "FETCH_TIMEOUT", "FETCH_TRIES",
	"FETCH_BREAKER_FAILURES", "FETCH_BREAKER_COOLDOWN",
	"LOG_LEVEL", "LOG_DEV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
}

// clearEnv unsets every variable the loader reads, restoring them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVars {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
		}
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Storage config
	assert.Equal(t, "models", cfg.Storage.RootDir)
	assert.Equal(t, "/tmp", cfg.Storage.StagingDir)
	assert.Equal(t, 0, cfg.Storage.ScanMaxDepth)
	assert.Empty(t, cfg.Storage.ScanExclude)

	// No default secret
	assert.Empty(t, cfg.Security.Token)

	// Fetch config
	assert.Equal(t, BackendWget, cfg.Fetch.Backend)
	assert.Equal(t, "wget", cfg.Fetch.Tool)
	assert.Equal(t, 300*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.Tries)
	assert.Equal(t, 5, cfg.Fetch.BreakerFailures)
	assert.Equal(t, time.Minute, cfg.Fetch.BreakerCooldown)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)

	envVars := map[string]string{
		"PORT":                   "9000",
		"HOST":                   "127.0.0.1",
		"ROOT_DIR":               "/srv/models",
		"STAGING_DIR":            "/srv/staging",
		"SCAN_MAX_DEPTH":         "4",
		"SCAN_EXCLUDE":           "**/.git,cache/**",
		"SECURITY_TOKEN":         "s3cret",
		"FETCH_BACKEND":          "http",
		"FETCH_TOOL":             "/usr/local/bin/wget",
		"FETCH_TIMEOUT":          "90s",
		"FETCH_TRIES":            "5",
		"FETCH_BREAKER_FAILURES": "0",
		"FETCH_BREAKER_COOLDOWN": "2m",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"RATE_LIMIT_RPS":         "500",
		"RATE_LIMIT_BURST":       "1000",
		"RATE_LIMIT_ENABLED":     "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())

	assert.Equal(t, "/srv/models", cfg.Storage.RootDir)
	assert.Equal(t, "/srv/staging", cfg.Storage.StagingDir)
	assert.Equal(t, 4, cfg.Storage.ScanMaxDepth)
	assert.Equal(t, []string{"**/.git", "cache/**"}, cfg.Storage.ScanExclude)

	assert.Equal(t, "s3cret", cfg.Security.Token)

	assert.Equal(t, BackendHTTP, cfg.Fetch.Backend)
	assert.Equal(t, "/usr/local/bin/wget", cfg.Fetch.Tool)
	assert.Equal(t, 90*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.Tries)
	assert.Equal(t, 0, cfg.Fetch.BreakerFailures)
	assert.Equal(t, 2*time.Minute, cfg.Fetch.BreakerCooldown)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "models", cfg.Storage.RootDir)
	assert.Equal(t, 300*time.Second, cfg.Fetch.Timeout)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "FETCH_TIMEOUT", value: "soon"},
		{key: "FETCH_TRIES", value: "many"},
		{key: "RATE_LIMIT_ENABLED", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := Default()
		cfg.Storage.RootDir = t.TempDir()
		cfg.Storage.StagingDir = filepath.Join(t.TempDir(), "staging", "nested")
		cfg.Security.Token = "s3cret"
		return cfg
	}

	t.Run("valid config creates staging", func(t *testing.T) {
		cfg := valid(t)
		require.NoError(t, cfg.Validate())
		assert.DirExists(t, cfg.Storage.StagingDir)
	})

	tests := []struct {
		name    string
		mutate  func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name:    "missing root",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Storage.RootDir = filepath.Join(t.TempDir(), "missing") },
			wantErr: "does not exist",
		},
		{
			name: "root is a file",
			mutate: func(t *testing.T, cfg *Config) {
				p := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(p, nil, 0o644))
				cfg.Storage.RootDir = p
			},
			wantErr: "not a directory",
		},
		{
			name:    "missing token",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Security.Token = "" },
			wantErr: "SECURITY_TOKEN",
		},
		{
			name:    "unknown backend",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Fetch.Backend = "ftp" },
			wantErr: "unknown fetch backend",
		},
		{
			name:    "zero tries",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Fetch.Tries = 0 },
			wantErr: "tries",
		},
		{
			name:    "zero timeout",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Fetch.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "negative breaker failures",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Fetch.BreakerFailures = -1 },
			wantErr: "breaker failures",
		},
		{
			name:    "zero breaker cooldown",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Fetch.BreakerCooldown = 0 },
			wantErr: "breaker cooldown",
		},
		{
			name:    "negative depth",
			mutate:  func(t *testing.T, cfg *Config) { cfg.Storage.ScanMaxDepth = -1 },
			wantErr: "depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(t, cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
