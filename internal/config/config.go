// Package config loads process configuration for the liveslides binaries.
//
// Precedence (low -> high): defaults, optional YAML file named by
// LIVESLIDES_CONFIG, environment variables with the LIVESLIDES_ prefix.
// The CLI applies its flags on top.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the document store backend: memory or redis.
	Store       string `koanf:"store"`
	RedisURL    string `koanf:"redis_url"`
	RedisPrefix string `koanf:"redis_prefix"`

	// CatalogMap names the map holding presentations by code.
	CatalogMap string `koanf:"catalog_map"`
	CodeLength int    `koanf:"code_length"`

	// DecksDir optionally seeds the catalog from a deck directory and follows its changes.
	DecksDir string `koanf:"decks_dir"`

	MetricsEnabled    bool   `koanf:"metrics_enabled"`
	AnalyticsWriteKey string `koanf:"analytics_write_key"`
	// AnalyticsRedact lists regular expressions; matching property keys are
	// masked before analytics calls leave the process.
	AnalyticsRedact []string `koanf:"analytics_redact"`

	// PresenterToken guards state writes. It may be a bcrypt hash.
	PresenterToken string `koanf:"presenter_token"`

	// UIBaseURL is where /api/update redirects the presenter.
	UIBaseURL string `koanf:"ui_base_url"`

	TallyFlushInterval time.Duration `koanf:"tally_flush_interval"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		Store:              StoreMemory,
		RedisURL:           "redis://localhost:6379/0",
		RedisPrefix:        "liveslides:",
		CatalogMap:         domain.DefaultCatalog,
		CodeLength:         domain.DefaultCodeSize,
		MetricsEnabled:     true,
		AnalyticsRedact:    []string{"(?i)e-?mail", "(?i)phone"},
		UIBaseURL:          "http://localhost:8080",
		TallyFlushInterval: time.Second,
	}
}

// Validate checks the configuration for values the binaries cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.CodeLength < domain.MinCodeLength || c.CodeLength > domain.MaxCodeLength {
		return fmt.Errorf("%w: code_length must be between %d and %d", ErrInvalidConfig, domain.MinCodeLength, domain.MaxCodeLength)
	}
	if c.TallyFlushInterval <= 0 {
		return fmt.Errorf("%w: tally_flush_interval must be positive", ErrInvalidConfig)
	}
	for _, p := range c.AnalyticsRedact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: analytics_redact %q: %v", ErrInvalidConfig, p, err)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
