// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate, for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("defaults with jwt secret pass", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("missing jwt secret fails", func(t *testing.T) {
		cfg := defaultConfig()
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty jwt secret")
		}
	})

	t.Run("short jwt secret fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Security.JWTSecret = "short"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for short jwt secret")
		}
	})

	t.Run("port out of range fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for port 0")
		}
		cfg.Server.Port = 70000
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for port 70000")
		}
	})

	t.Run("admin credentials must come in pairs", func(t *testing.T) {
		cfg := validConfig()
		cfg.Security.AdminUsername = "admin"
		cfg.Security.AdminPassword = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for username without password")
		}
	})

	t.Run("updater tick below one second fails when enabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Updater.TickInterval = 100 * time.Millisecond
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for sub-second tick interval")
		}
	})

	t.Run("disabled updater skips scheduling checks", func(t *testing.T) {
		cfg := validConfig()
		cfg.Updater.Enabled = false
		cfg.Updater.TickInterval = 0
		cfg.Updater.Workers = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("disabled updater should not be validated: %v", err)
		}
	})

	t.Run("unknown log level fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown log level")
		}
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("UPDATER_WORKERS", "8")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Updater.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Updater.Workers)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors origins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched settings keep their defaults.
	if cfg.Health.CheckInterval != 24*time.Hour {
		t.Errorf("health check interval = %v, want 24h", cfg.Health.CheckInterval)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"DUCKDB_PATH", "database.path"},
		{"HEALTH_CHECK_INTERVAL", "health.check_interval"},
		{"RANDOM_UNRELATED_VAR", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
