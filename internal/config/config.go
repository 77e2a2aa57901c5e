// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package config loads and validates application configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, with environment taking the highest precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Updater  UpdaterConfig  `koanf:"updater"`
	Health   HealthConfig   `koanf:"health"`
	Fetch    FetchConfig    `koanf:"fetch"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// UpdaterConfig holds auto-update scheduler settings.
type UpdaterConfig struct {
	Enabled      bool          `koanf:"enabled"`
	TickInterval time.Duration `koanf:"tick_interval"`
	Workers      int           `koanf:"workers"`
}

// HealthConfig holds source-health checker settings. TickInterval is how
// often the sweep runs; CheckInterval is the per-playlist cadence between
// probes of the same source.
type HealthConfig struct {
	Enabled       bool          `koanf:"enabled"`
	TickInterval  time.Duration `koanf:"tick_interval"`
	CheckInterval time.Duration `koanf:"check_interval"`
	HistoryLimit  int           `koanf:"history_limit"`
	Workers       int           `koanf:"workers"`
}

// FetchConfig holds outbound HTTP client settings shared by source fetches
// and health probes.
type FetchConfig struct {
	Timeout      time.Duration `koanf:"timeout"`
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
	UserAgent    string        `koanf:"user_agent"`
	RatePerSec   float64       `koanf:"rate_per_sec"`
	RateBurst    int           `koanf:"rate_burst"`
}

// APIConfig holds pagination defaults for listing endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and request-policy settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would break the service
// at runtime. It is called once after loading.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateScheduling(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required (set JWT_SECRET)")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive, got %v", c.Security.SessionTimeout)
	}
	// Bootstrap admin is optional, but credentials must come in pairs.
	if (c.Security.AdminUsername == "") != (c.Security.AdminPassword == "") {
		return fmt.Errorf("security.admin_username and security.admin_password must be set together")
	}
	return nil
}

func (c *Config) validateScheduling() error {
	if c.Updater.Enabled {
		if c.Updater.TickInterval < time.Second {
			return fmt.Errorf("updater.tick_interval must be at least 1s, got %v", c.Updater.TickInterval)
		}
		if c.Updater.Workers < 1 {
			return fmt.Errorf("updater.workers must be at least 1, got %d", c.Updater.Workers)
		}
	}
	if c.Health.Enabled {
		if c.Health.TickInterval < time.Second {
			return fmt.Errorf("health.tick_interval must be at least 1s, got %v", c.Health.TickInterval)
		}
		if c.Health.HistoryLimit < 1 {
			return fmt.Errorf("health.history_limit must be at least 1, got %d", c.Health.HistoryLimit)
		}
		if c.Health.Workers < 1 {
			return fmt.Errorf("health.workers must be at least 1, got %d", c.Health.Workers)
		}
	}
	if c.Fetch.Timeout <= 0 || c.Fetch.ProbeTimeout <= 0 {
		return fmt.Errorf("fetch.timeout and fetch.probe_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level must be a known level, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
