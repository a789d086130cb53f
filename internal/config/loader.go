package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load resolves and validates the process configuration.
//
// Sequence:
//  1. Force the process timezone to UTC so stored timestamps never drift
//     with the host timezone.
//  2. Load a .env file if one exists (never overrides real env vars).
//  3. Populate the Config struct from envconfig tags.
//  4. Validate the populated struct; any failure aborts startup.
func Load() (*Config, error) {
	time.Local = time.UTC

	// Non-fatal if absent; local development convenience only.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
