// Package server exposes the HTTP JSON API.
//
// Requests are decoded into typed structs and validated here, before
// anything reaches the core; the core packages never see raw HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ranjeet229/KnowledgeScout/internal/auth"
	"github.com/ranjeet229/KnowledgeScout/internal/config"
	"github.com/ranjeet229/KnowledgeScout/internal/ingest"
	"github.com/ranjeet229/KnowledgeScout/internal/query"
	"github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

// shutdownTimeout bounds graceful shutdown on context cancellation.
const shutdownTimeout = 5 * time.Second

// Server wires the HTTP API to the core services.
type Server struct {
	cfg    *config.Config
	auth   *auth.Service
	ingest *ingest.Service
	store  *store.Store
	query  *query.Service
	stats  *stats.Tracker
	logger *slog.Logger
}

// New creates the HTTP server facade.
func New(cfg *config.Config, authSvc *auth.Service, ingestSvc *ingest.Service,
	st *store.Store, querySvc *query.Service, tracker *stats.Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		auth:   authSvc,
		ingest: ingestSvc,
		store:  st,
		query:  querySvc,
		stats:  tracker,
		logger: logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.withAuth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Post("/docs", s.handleUpload)
		r.Get("/docs", s.handleListDocs)
		r.Get("/docs/{id}", s.handleGetDoc)

		r.Post("/ask", s.handleAsk)

		r.Post("/index/rebuild", s.handleRebuild)
		r.Get("/index/stats", s.handleStats)

		r.Get("/health", s.handleHealth)
	})

	return r
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server_shutting_down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
