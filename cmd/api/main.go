// Package main is the entry point for the mowquote API server.
//
// It loads configuration from the environment, connects the Postgres pool,
// builds the external clients (Resend, geocoder) and the estimate service,
// mounts everything on the core chassis, and serves HTTP with graceful
// shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"

	"mowquote/internal/api/handlers"
	"mowquote/internal/config"
	"mowquote/internal/core"
	"mowquote/internal/db"
	"mowquote/internal/estimates"
	"mowquote/internal/external"
	"mowquote/internal/pdfgen"
	"mowquote/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("mowquote API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	repo := db.NewEstimateRepository(pool)
	svc := estimates.NewService(repo, logger)
	renderer := pdfgen.NewRenderer(cfg.Company)

	httpClient := &http.Client{Timeout: 10 * time.Second}
	mailer := external.NewResendClient(httpClient, external.ResendClientConfig{
		Email:  cfg.Email,
		Logger: logger,
	})
	geocoder := external.NewGeocodeClient(httpClient, external.GeocodeClientConfig{
		Geocode: cfg.Geocode,
		Logger:  logger,
	})

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	srv.Metrics, err = newMetrics(ctx, cfg.Observability, logger)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	srv.HealthProbes = []core.HealthProbe{db.Probe{Pool: pool}}

	estimateHandler := handlers.NewEstimateHandler(svc, renderer, mailer, srv.Validator, logger)
	measurementHandler := handlers.NewMeasurementHandler(srv.Validator, logger)
	geocodeHandler := handlers.NewGeocodeHandler(geocoder, srv.Validator, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		func(r chi.Router) { estimateHandler.RegisterRoutes(r) },
		func(r chi.Router) { measurementHandler.RegisterRoutes(r) },
		func(r chi.Router) { geocodeHandler.RegisterRoutes(r) },
	)

	srv.MountRoutes()

	return serveHTTP(ctx, srv, cfg, logger)
}

// newMetrics returns the CloudWatch collector when metrics are enabled and
// the no-op collector otherwise.
func newMetrics(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) (core.MetricsCollector, error) {
	if !cfg.MetricsEnabled {
		return telemetry.NoopMetrics{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return telemetry.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.MetricsNamespace, logger), nil
}

// serveHTTP runs the HTTP server until the context is cancelled or the
// listener fails, then shuts down with a 10-second deadline.
func serveHTTP(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
