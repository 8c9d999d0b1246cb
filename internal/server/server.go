// Package server exposes the screening calculator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rshade/klimatmodell/internal/climate"
)

// maxRequestBytes bounds the size of a request body.
const maxRequestBytes = 1 << 20

// Server serves assessments for one shared calculator.
type Server struct {
	calc   *climate.Calculator
	logger zerolog.Logger
	mux    *http.ServeMux
}

// New returns a server for calc. The calculator is shared by all requests.
func New(calc *climate.Calculator, logger zerolog.Logger) *Server {
	s := &Server{
		calc:   calc,
		logger: logger.With().Str("component", "server").Logger(),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /v1/emissions", s.handleEmissions)
	s.mux.HandleFunc("GET /v1/timber", s.handleTimber)
	s.mux.HandleFunc("GET /v1/tables/{boundary}", s.handleTables)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the request handler with request IDs, access logs and
// request metrics applied.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info().Msg("shutting down")
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", addr).Str("tables_version", s.calc.Tables().Version()).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", addr, err)
	}

	if err := <-shutdownDone; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
