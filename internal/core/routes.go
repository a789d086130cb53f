package core

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// defaultRequestTimeout is used when the config does not set one.
const defaultRequestTimeout = 29 * time.Second

// MountRoutes registers the global middleware chain, the /v1 route group,
// and the public health endpoint.
//
// Middleware order matters:
//  1. Recoverer       catches panics from everything below.
//  2. ContextTimeout  soft deadline before the platform hard timeout.
//  3. RequestID       correlation ID for logs and responses.
//  4. SecurityHeaders present on every response, including errors.
//  5. RequestLogger   structured logging with redacted headers.
//  6. CORS            browser access control, answers preflights.
//  7. Compression     gzip for accepting clients.
//  8. Metrics         latency and count recording.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
	s.router.Use(CompressionMiddleware)
	s.router.Use(s.MetricsMiddleware)

	s.router.Route("/v1", s.mountV1)
	s.router.Get("/health", s.HandleHealth)
}

func (s *Server) mountV1(r chi.Router) {
	for _, registrar := range s.V1RouteRegistrars {
		registrar(r)
	}
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config != nil && s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}

func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Server.CORSAllowedOrigins) > 0 {
		return s.Config.Server.CORSAllowedOrigins
	}
	return []string{"*"}
}
