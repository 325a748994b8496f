// Package config loads calendar client settings from CALENDAR_* variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds the client configuration.
// Example: CALENDAR_API_URL, CALENDAR_STORAGE_DRIVER.
type Config struct {
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:4000/api"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	StorageDriver     string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	StoragePath       string `envconfig:"STORAGE_PATH" default:""`
	StoragePassphrase string `envconfig:"STORAGE_PASSPHRASE" default:""`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`

	// Event listing retries transient failures; mutations never retry.
	LoadRetries int           `envconfig:"LOAD_RETRIES" default:"2"`
	LoadBackoff time.Duration `envconfig:"LOAD_BACKOFF" default:"200ms"`
}

// New parses the environment and validates the result. An empty
// STORAGE_PATH is resolved under the user config directory.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("CALENDAR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveDefaults fills derived values.
func (c *Config) ResolveDefaults() error {
	c.StorageDriver = strings.ToLower(c.StorageDriver)
	if c.StoragePath != "" || c.StorageDriver == DriverMemory {
		return nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("resolve storage path: %w", err)
	}
	name := "session.db"
	if c.StorageDriver == DriverFile {
		name = "session.enc"
	}
	c.StoragePath = filepath.Join(dir, "calendar-sync", name)
	return nil
}

// Validate rejects settings the binaries cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_URL %q", c.APIURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverFile:
		if c.StoragePassphrase == "" {
			return fmt.Errorf("STORAGE_PASSPHRASE is required for the file driver")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("unsupported LOG_LEVEL: %s", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT: %s", c.LogFormat)
	}
	if c.LoadRetries < 0 {
		return fmt.Errorf("LOAD_RETRIES must be >= 0")
	}
	return nil
}

// MarshalZerologObject logs the configuration without secrets.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("api_url", c.APIURL).
		Dur("http_timeout", c.HTTPTimeout).
		Str("storage_driver", c.StorageDriver).
		Str("storage_path", c.StoragePath).
		Bool("passphrase_present", c.StoragePassphrase != "").
		Str("log_level", c.LogLevel).
		Bool("debug", c.Debug).
		Int("load_retries", c.LoadRetries)
}
