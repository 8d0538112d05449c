// Package server exposes the application's health and readiness surface over
// HTTP. It is deliberately small: two probe endpoints backed by the lifecycle
// orchestrator, with the usual request plumbing (request IDs, structured
// request logs, CORS, rate limiting).
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/keenhq/keen/internal/lifecycle"
	"github.com/keenhq/keen/internal/model"
	"github.com/keenhq/keen/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int // requests per IP per minute, 0 disables
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimit:       100,
	}
}

// Server serves the health and readiness probes for a running keen instance.
type Server struct {
	cfg        Config
	router     chi.Router
	orch       *lifecycle.Orchestrator
	httpServer *http.Server
	logger     *slog.Logger
}

// New wires routes and middleware and returns a server ready to listen.
func New(cfg Config, orch *lifecycle.Orchestrator, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, orch: orch, logger: logger}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	if s.cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(s.cfg.RateLimit))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	s.router = r
}

// handleHealthz reports a fresh database health snapshot: 200 when the
// database answers the ping, 503 otherwise. The snapshot is never cached.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status, err := s.orch.HealthStatus(r.Context())
	httpStatus := http.StatusOK
	if err != nil || !status.Connected {
		httpStatus = http.StatusServiceUnavailable
	}
	if status == nil {
		status = &model.HealthStatus{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(status)
}

// handleReadyz reports whether the startup sequence completed: 200 only once
// the orchestrator reached Ready.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	httpStatus := http.StatusOK
	if !s.orch.Ready() {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{
		"state": string(s.orch.State()),
	})
}

// ListenAndServe starts the server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests and shuts the orchestrator down.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("health server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		// The pool was opened during Initialize; release it even though the
		// listener never came up.
		if serr := s.orch.Shutdown(); serr != nil {
			s.logger.Error("shutdown after listen failure", "error", serr)
		}
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.orch.Shutdown(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// ServeHTTP implements http.Handler, delegating to the router. Useful for
// tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
