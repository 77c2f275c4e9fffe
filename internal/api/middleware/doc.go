// Package middleware provides HTTP middleware for the fileshelf server.
//
// Middleware stack includes:
//   - RequestID: ULID request IDs in X-Request-ID
//   - Logger: one zap line per request
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - RequireToken: shared-secret gate for delete and download
//
// Rate Limiting:
//   - Per-IP tracking with idle clients swept after ten minutes
//   - Token bucket algorithm
//   - Configurable RPS and burst capacity
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.GET("/delete/*subpath", middleware.RequireToken(secret, logger), h.Delete)
package middleware
