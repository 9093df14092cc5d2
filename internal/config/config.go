// Package config reads service configuration from flags and environment.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the service runtime parameters. Environment variables win
// over flags.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	CORSOrigins string `env:"CORS_ORIGINS"`
}

const defaultRunAddress = ":8080"

// Parse reads configuration from command-line flags and the environment.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCORSOrigins := cfg.CORSOrigins

	fs := flag.NewFlagSet("gatepass", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	fs.StringVar(&cfg.CORSOrigins, "c", "", "comma-separated CORS allow-list")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCORSOrigins != "" {
		cfg.CORSOrigins = envCORSOrigins
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}
