// Package server exposes the extraction pipeline over HTTP for the
// onboarding portal.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/config"
	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/internal/store"
)

// Extractor runs one extraction request through the pipeline.
type Extractor interface {
	Extract(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error)
}

// Server is the HTTP front end for extraction and operations queries.
type Server struct {
	extractor Extractor
	store     store.Store
	cfg       config.ServerConfig
	srv       *http.Server
}

// New creates a Server with the given dependencies.
func New(extractor Extractor, st store.Store, cfg config.ServerConfig) *Server {
	return &Server{
		extractor: extractor,
		store:     st,
		cfg:       cfg,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Get("/ops/summary", s.handleOpsSummary)
		r.Get("/errors", s.handleListErrors)
		r.Post("/errors/{id}/resolve", s.handleResolveError)
		r.Get("/templates", s.handleListTemplates)
	})
	return r
}

// Start runs the server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}
