// Package server provides HTTP server setup and initialization for fileshelf.
//
// This package wires all components together:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, request IDs, access log, metrics, CORS, rate limiting)
//   - Path resolution, listing, scanning, deletion and fetch-and-link
//   - Prometheus exposition at /metrics
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Validate it (root exists, token set, staging created)
//  3. Initialize logger and metrics
//  4. Build the filesystem layer and the configured fetch backend
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Close()
package server
