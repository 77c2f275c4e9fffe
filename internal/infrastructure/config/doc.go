// Package config provides 12-factor configuration management for fileshelf.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Storage: browsed root, staging directory, scan limits
//   - Security: shared token for delete and download
//   - Fetch: download backend, tool, timeout, tries, per-host circuit breaker
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// Environment Variables:
//   - PORT, HOST
//   - ROOT_DIR, STAGING_DIR, SCAN_MAX_DEPTH, SCAN_EXCLUDE
//   - SECURITY_TOKEN
//   - FETCH_BACKEND, FETCH_TOOL, FETCH_TIMEOUT, FETCH_TRIES
//   - FETCH_BREAKER_FAILURES, FETCH_BREAKER_COOLDOWN
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
