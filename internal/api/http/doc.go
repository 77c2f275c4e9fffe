// Package http provides the HTTP handlers and routing of the fileshelf server.
//
// Handlers are thin: every path arrives still URL-encoded, is resolved once by
// filesystem.Resolver, and only then touches disk.
//
// Endpoints:
//   - Root: / redirects to /browse/
//   - Health: /health
//   - Browse: /browse/*subpath lists a directory
//   - Raw: /raw/*subpath serves a file with a sniffed content type
//   - Delete: /delete/*subpath (token required)
//   - Download: GET /download form data, POST /download fetch-and-link (token required)
//
// Mutating endpoints answer with 303 See Other and leave their outcome as
// flash messages, which the next Browse or DownloadForm response returns in
// its "messages" field.
//
// Example Usage:
//
//	h := http.NewHandlers(resolver, lister, scanner, deleter, linker, metrics, logger)
//	h.Register(router, middleware.RequireToken(cfg.Security.Token, logger))
package http
