// Package config loads service and CLI settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacoelho/dictionary/internal/store"
)

// Environment variables read by Load.
const (
	EnvStoreDriver     = "DICTIONARY_STORE_DRIVER"
	EnvStoreDSN        = "DICTIONARY_STORE_DSN"
	EnvRedisAddr       = "DICTIONARY_REDIS_ADDR"
	EnvLogLevel        = "DICTIONARY_LOG_LEVEL"
	EnvSkipConstraints = "DICTIONARY_SKIP_CONSTRAINTS"
	EnvRefreshTimeout  = "DICTIONARY_REFRESH_TIMEOUT"
)

// Config holds service configuration.
type Config struct {
	StoreDriver     string        `yaml:"store_driver"`
	StoreDSN        string        `yaml:"store_dsn"`
	RedisAddr       string        `yaml:"redis_addr"`
	LogLevel        string        `yaml:"log_level"`
	SkipConstraints bool          `yaml:"skip_constraints"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		StoreDriver:    store.DriverMemory,
		LogLevel:       "INFO",
		RefreshTimeout: 30 * time.Second,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if v := os.Getenv(EnvStoreDriver); v != "" {
		cfg.StoreDriver = v
	}
	if v := os.Getenv(EnvStoreDSN); v != "" {
		cfg.StoreDSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvSkipConstraints); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSkipConstraints, err)
		}
		cfg.SkipConstraints = skip
	}
	if v := os.Getenv(EnvRefreshTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRefreshTimeout, err)
		}
		cfg.RefreshTimeout = d
	}
	return cfg, cfg.Validate()
}

// LoadFile reads the environment and then overlays the YAML file at path.
// Keys present in the file win.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks driver names, DSNs and durations.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case store.DriverMemory:
	case store.DriverSQLite, store.DriverPostgres:
		if c.StoreDSN == "" {
			errs = append(errs, fmt.Errorf("store driver %s needs a dsn", c.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.RefreshTimeout <= 0 {
		errs = append(errs, fmt.Errorf("refresh timeout must be positive, got %s", c.RefreshTimeout))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
