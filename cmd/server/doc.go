// Package main is the entry point for the fileshelf server.
//
// fileshelf is a small web file browser over one root directory. It lists
// directories, serves files, deletes items, and fetches remote files into a
// staging directory that it links into the tree.
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags (override env vars)
//   - SECURITY_TOKEN has no default and must be set
//
// Usage:
//
//	# Production mode
//	SECURITY_TOKEN=... ./server -root /srv/models -staging /var/lib/fileshelf
//
//	# Development mode (colored logs, debug level)
//	SECURITY_TOKEN=dev ./server -dev -root ./models
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
