// Package api serves stored KPI results, benchmarks and rankings over HTTP,
// and triggers runs.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leapkpi/internal/engine"
)

// Config configures a Server.
type Config struct {
	Engine *engine.Engine
	// Addr is the listen address, e.g. ":8088".
	Addr    string
	Version string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// RequestTimeout bounds each request, runs included. Defaults to 60s.
	RequestTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	engine  *engine.Engine
	addr    string
	version string
	logger  *slog.Logger
	router  chi.Router
}

// New creates a server and mounts its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	s := &Server{
		engine:  cfg.Engine,
		addr:    cfg.Addr,
		version: cfg.Version,
		logger:  logger,
	}
	s.router = s.mount(timeout)
	return s
}

func (s *Server) mount(timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/kpis", s.handleListKPIs)
		r.Get("/benchmarks/{period}", s.handleGetBenchmarks)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/{period}", s.handleCreateRun)
		})
		r.Route("/facilities/{facility}/periods/{period}", func(r chi.Router) {
			r.Get("/results", s.handleGetResults)
			r.Get("/anomalies", s.handleGetAnomalies)
			r.Get("/rank/{kpi}", s.handleGetRank)
		})
	})

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       40 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       time.Minute,
	}

	s.logger.Info("server started", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
