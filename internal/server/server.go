// Package server wires routes, middleware and the HTTP listener.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/spendwise/internal/auth"
	"github.com/mmynk/spendwise/internal/config"
	"github.com/mmynk/spendwise/internal/events"
	"github.com/mmynk/spendwise/internal/http/handlers"
	"github.com/mmynk/spendwise/internal/metrics"
	"github.com/mmynk/spendwise/internal/middleware"
	"github.com/mmynk/spendwise/internal/service"
	"github.com/mmynk/spendwise/internal/storage"
	"github.com/mmynk/spendwise/web"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	handler http.Handler
}

// New wires up middleware, routes, and returns a ready server.
// publisher may be nil when split events are disabled.
func New(cfg config.Config, store storage.Store, publisher events.Publisher, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(registry)
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	requireAuth := middleware.RequireAuth(jwtManager)

	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, logger)
	expenseSvc := service.NewExpenseService(store, m, publisher, logger)
	userSvc := service.NewUserService(store, logger)

	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(authSvc, logger).Register(mux)
	handlers.NewExpenseHandler(expenseSvc, logger).Register(mux, requireAuth)
	handlers.NewUserHandler(userSvc, logger).Register(mux, requireAuth)

	static, err := staticFiles(cfg.StaticPath)
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /", http.FileServerFS(static))

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Observe(logger, m, mux))

	// h2c serves HTTP/2 without TLS alongside HTTP/1.1.
	handler = h2c.NewHandler(handler, &http2.Server{})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return &Server{inner: httpServer, handler: handler}, nil
}

// staticFiles returns the front end to serve: the embedded copy, or the
// directory at path when one is configured.
func staticFiles(path string) (fs.FS, error) {
	if path == "" {
		return web.Static(), nil
	}
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve static path: %w", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("static path %s is not a directory", dir)
	}
	slog.Info("Serving static files", "path", dir)
	return os.DirFS(dir), nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
