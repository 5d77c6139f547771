// Package config loads service configuration from environment variables,
// falling back to defaults suitable for local development.
package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPort           = "8080"
	defaultRemoteURL      = "http://localhost:54321"
	defaultStagingPath    = "ledgerboard.db"
	defaultWorkerInterval = time.Minute
	defaultHTTPTimeout    = 15 * time.Second

	envPort           = "PORT"
	envRemoteURL      = "LEDGER_REMOTE_URL"
	envRemoteKey      = "LEDGER_REMOTE_KEY"
	envStagingPath    = "LEDGER_STAGING_PATH"
	envWorkerInterval = "LEDGER_WORKER_INTERVAL"
)

// Config holds the application configuration.
type Config struct {
	// Port is the HTTP listen port for the API server.
	Port string

	// RemoteURL is the base URL of the hosted row store the gateway talks to.
	RemoteURL string

	// RemoteKey is the API key sent with every gateway request.
	RemoteKey string

	// StagingPath is the filesystem path of the embedded staging database.
	StagingPath string

	// WorkerInterval is how often the worker scans for due obligations.
	WorkerInterval time.Duration

	// HTTPTimeout bounds every single gateway request.
	HTTPTimeout time.Duration
}

// Load reads the configuration from the environment, logging every fallback
// to a default value.
func Load(log zerolog.Logger) *Config {
	cfg := &Config{
		Port:           envOrDefault(log, envPort, defaultPort),
		RemoteURL:      envOrDefault(log, envRemoteURL, defaultRemoteURL),
		RemoteKey:      os.Getenv(envRemoteKey),
		StagingPath:    envOrDefault(log, envStagingPath, defaultStagingPath),
		WorkerInterval: defaultWorkerInterval,
		HTTPTimeout:    defaultHTTPTimeout,
	}

	if raw := os.Getenv(envWorkerInterval); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.WorkerInterval = d
		} else {
			log.Warn().Str("value", raw).Msg("Invalid LEDGER_WORKER_INTERVAL, using default")
		}
	}

	if cfg.RemoteKey == "" {
		log.Warn().Msg("No remote API key configured - gateway requests will be unauthenticated")
	}

	return cfg
}

func envOrDefault(log zerolog.Logger, key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	log.Debug().Str("key", key).Str("default", fallback).Msg("Using default configuration value")
	return fallback
}
