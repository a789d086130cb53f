// Package core provides the API chassis for the mowquote service.
// It assembles a chi router with the cross-cutting middleware chain
// (recovery, request IDs, logging, CORS, compression, metrics) so that
// domain handlers only deal with their own request semantics.
package core

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mowquote/internal/config"
)

// MetricsCollector records request telemetry. The CloudWatch implementation
// lives in internal/telemetry; tests and local runs use the no-op collector.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of domain routes onto a chi router. Handler
// packages expose registrars so that core never imports them, avoiding
// import cycles.
type RouteRegistrar func(r chi.Router)

// Server bundles the dependencies shared by all HTTP handlers.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// V1RouteRegistrars are mounted under /v1 by MountRoutes. Populated by
	// the application entry point.
	V1RouteRegistrars []RouteRegistrar

	// HealthProbes are checked by GET /health. Each probe covers one
	// critical dependency, currently just the database.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer wires the chassis. Routes are mounted separately via MountRoutes
// so tests can register their own.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler for http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the underlying mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
