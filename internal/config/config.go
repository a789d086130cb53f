// Package config defines the process configuration for the mowquote service.
// Configuration is loaded once at startup and immutable thereafter, resolved
// from OS environment variables with a .env file as fallback (12-factor).
// Missing required values fail startup immediately.
package config

import (
	"time"

	"mowquote/internal/types"
)

// SecretString aliases types.SecretString so config consumers get redaction
// without importing types directly.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subsets they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server        ServerConfig
	Database      DatabaseConfig
	Email         EmailConfig
	Geocode       GeocodeConfig
	Company       CompanyConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// DatabaseConfig holds connection and pool tuning for the estimates store.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// EmailConfig holds the transactional email provider credentials and sender
// identity used on outgoing estimates.
type EmailConfig struct {
	ResendAPIKey SecretString `envconfig:"RESEND_API_KEY" validate:"required"`
	FromAddress  string       `envconfig:"EMAIL_FROM_ADDRESS" default:"onboarding@resend.dev"`
	FromName     string       `envconfig:"EMAIL_FROM_NAME" default:"Sharp Lawn Mowing"`
}

// GeocodeConfig holds the maps-provider geocoding settings. Bias coordinates
// center ambiguous lookups on the service area.
type GeocodeConfig struct {
	APIKey  SecretString `envconfig:"GEOCODE_API_KEY" validate:"required"`
	BaseURL string       `envconfig:"GEOCODE_BASE_URL" default:"https://maps.googleapis.com"`
	BiasLat float64      `envconfig:"GEOCODE_BIAS_LAT" default:"26.1224"`
	BiasLng float64      `envconfig:"GEOCODE_BIAS_LNG" default:"-80.1373"`
}

// CompanyConfig holds the branding rendered onto estimate documents.
type CompanyConfig struct {
	Name              string `envconfig:"COMPANY_NAME" default:"Sharp Lawn Mowing"`
	Phone             string `envconfig:"COMPANY_PHONE" default:"(954) 787-8150"`
	PaymentHandle     string `envconfig:"COMPANY_PAYMENT_HANDLE" default:"@Breck-Wiener"`
	EstimateValidDays int    `envconfig:"ESTIMATE_VALID_DAYS" default:"7"`
}

// ObservabilityConfig holds request-metrics settings. Metrics are pushed to
// CloudWatch only when enabled; local runs use the no-op collector.
type ObservabilityConfig struct {
	MetricsEnabled   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"MowQuote"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`
}
