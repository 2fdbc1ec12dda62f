// Package server wires the OGC API routes onto a chi router.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eea-wise/waterdata-api/internal/health"
	"github.com/eea-wise/waterdata-api/internal/items"
	"github.com/eea-wise/waterdata-api/internal/middleware"
	"github.com/eea-wise/waterdata-api/internal/ogc"
	"github.com/eea-wise/waterdata-api/internal/waterbase"
)

type Server struct {
	baseURL  string
	logger   *slog.Logger
	registry *ogc.Registry
	composer *items.Composer
	source   *waterbase.Source
	coords   *waterbase.CoordinateService
	pinger   health.Pinger
}

func New(baseURL string, l *slog.Logger, registry *ogc.Registry, composer *items.Composer, source *waterbase.Source, coords *waterbase.CoordinateService, pinger health.Pinger) *Server {
	return &Server{
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   l,
		registry: registry,
		composer: composer,
		source:   source,
		coords:   coords,
		pinger:   pinger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/", s.handleLandingPage)
	r.Get("/conformance", s.handleConformance)
	r.Get("/collections", s.handleCollections)
	r.Get("/collections/{collectionID}", s.handleCollection)
	r.Get("/collections/{collectionID}/items", s.handleItems)
	r.Get("/timeseries/site/{siteID}", s.handleTimeseries)
	r.Get("/parameters", s.handleParameters)

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(s.pinger))

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
