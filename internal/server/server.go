package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/fileshelf/internal/api/http"
	"github.com/GriffinCanCode/fileshelf/internal/api/middleware"
	"github.com/GriffinCanCode/fileshelf/internal/infrastructure/config"
	"github.com/GriffinCanCode/fileshelf/internal/infrastructure/logging"
	"github.com/GriffinCanCode/fileshelf/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fileshelf/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/fileshelf/internal/providers/fetch"
	"github.com/GriffinCanCode/fileshelf/internal/providers/filesystem"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer validates cfg and wires a server around it
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing fileshelf server",
		zap.String("addr", cfg.Addr()),
		zap.String("root", cfg.Storage.RootDir),
		zap.String("staging", cfg.Storage.StagingDir),
		zap.String("fetch_backend", cfg.Fetch.Backend),
	)

	// Initialize metrics first (needed by middleware and handlers)
	metrics := monitoring.NewMetrics()

	resolver, err := filesystem.NewResolver(cfg.Storage.RootDir, cfg.Storage.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}
	scanner, err := filesystem.NewScanner(resolver, filesystem.ScanOptions{
		MaxDepth: cfg.Storage.ScanMaxDepth,
		Exclude:  cfg.Storage.ScanExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	fsLogger := logger.Named("filesystem")
	fetchLogger := logger.Named("fetch")
	var fetcher filesystem.Fetcher = newFetcher(cfg.Fetch, fetchLogger)
	if cfg.Fetch.BreakerFailures > 0 {
		fetcher = guardedFetcher{next: fetcher, breakers: newBreakers(cfg.Fetch, fetchLogger)}
	}
	fetcher = timedFetcher{next: fetcher, metrics: metrics}
	linker := filesystem.NewLinker(resolver, fetcher, filesystem.LinkerConfig{
		StagingDir: cfg.Storage.StagingDir,
		Token:      cfg.Security.Token,
		Timeout:    cfg.Fetch.Timeout,
		Tries:      cfg.Fetch.Tries,
	}, fsLogger)

	handlers := api.NewHandlers(
		resolver,
		filesystem.NewLister(),
		scanner,
		filesystem.NewDeleter(resolver, fsLogger),
		linker,
		metrics,
		logger.Named("http"),
	)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("access")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Register routes
	handlers.Register(router, middleware.RequireToken(cfg.Security.Token, logger.Named("auth")))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			// No WriteTimeout: fetch-and-link holds the request for the whole download
		},
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

func newFetcher(cfg config.FetchConfig, logger *zap.Logger) filesystem.Fetcher {
	if cfg.Backend == config.BackendHTTP {
		return fetch.NewHTTPFetcher(logger)
	}
	return fetch.NewCommandFetcher(cfg.Tool, logger)
}

func newBreakers(cfg config.FetchConfig, logger *zap.Logger) *resilience.Breakers {
	return resilience.New(resilience.Settings{
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
		Timeout:             cfg.BreakerCooldown,
		// A missing tool is local, not the host's fault
		IsFailure: func(err error) bool {
			return !errors.Is(err, fetch.ErrToolUnavailable)
		},
		OnStateChange: func(host string, from, to resilience.State) {
			logger.Warn("Download circuit changed state",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// guardedFetcher stops calling hosts whose downloads keep failing
type guardedFetcher struct {
	next     filesystem.Fetcher
	breakers *resilience.Breakers
}

func (f guardedFetcher) Fetch(ctx context.Context, req fetch.Request) error {
	host := req.URL
	if u, err := url.Parse(req.URL); err == nil && u.Host != "" {
		host = u.Host
	}
	return f.breakers.Execute(host, func() error {
		return f.next.Fetch(ctx, req)
	})
}

// timedFetcher records each download under the fetch operation
type timedFetcher struct {
	next    filesystem.Fetcher
	metrics *monitoring.Metrics
}

func (f timedFetcher) Fetch(ctx context.Context, req fetch.Request) error {
	timer := monitoring.NewTimer(f.metrics, monitoring.OpFetch)
	err := f.next.Fetch(ctx, req)
	switch {
	case err == nil:
		timer.Stop("success")
	case errors.Is(err, fetch.ErrTimeout):
		timer.Stop("timeout")
	case errors.Is(err, fetch.ErrToolUnavailable):
		timer.Stop("tool_unavailable")
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		timer.Stop("circuit_open")
	default:
		timer.Stop("error")
	}
	return err
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A server stopped by
// Shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases server resources
func (s *Server) Close() error {
	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
