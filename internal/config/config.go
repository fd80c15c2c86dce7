// Package config reads the settings of `maktaba serve` from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime configuration of the HTTP server.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"MAKTABA_ADDR" envDefault:":8080"`

	// AssetDir serves the library from a local directory. Ignored when
	// AssetURL is set.
	AssetDir string `env:"MAKTABA_ASSET_DIR" envDefault:"./public"`
	// AssetURL fetches the library over HTTP(S).
	AssetURL string `env:"MAKTABA_ASSET_URL"`

	// RedisURL enables the redis scroll store. Empty keeps offsets in memory.
	RedisURL string `env:"MAKTABA_REDIS_URL"`

	FetchTimeout time.Duration `env:"MAKTABA_FETCH_TIMEOUT" envDefault:"30s"`
	ScrollTTL    time.Duration `env:"MAKTABA_SCROLL_TTL"    envDefault:"30m"`

	// RateLimit is the sustained per-client request rate; Burst the bucket size.
	RateLimit float64 `env:"MAKTABA_RATE_LIMIT" envDefault:"20"`
	Burst     int     `env:"MAKTABA_RATE_BURST" envDefault:"40"`
}

// Load parses environment variables into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.AssetDir == "" && c.AssetURL == "" {
		errs = append(errs, errors.New("one of MAKTABA_ASSET_DIR or MAKTABA_ASSET_URL is required"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MAKTABA_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.ScrollTTL <= 0 {
		errs = append(errs, fmt.Errorf("MAKTABA_SCROLL_TTL must be positive, got %s", c.ScrollTTL))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("MAKTABA_RATE_LIMIT must not be negative, got %g", c.RateLimit))
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		errs = append(errs, fmt.Errorf("MAKTABA_RATE_BURST must be at least 1, got %d", c.Burst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
