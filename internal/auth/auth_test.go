// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/playlistforge/internal/config"
)

func testSecurityConfig(timeout time.Duration) *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		SessionTimeout: timeout,
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig(time.Hour))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	token, err := m.GenerateToken(42, "alice", "admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTValidation(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig(time.Hour))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	t.Run("expired token is rejected", func(t *testing.T) {
		expired, err := NewJWTManager(testSecurityConfig(-time.Minute))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		token, err := expired.GenerateToken(1, "bob", "user")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		if _, err := m.ValidateToken(token); err == nil {
			t.Error("expected expired token to fail validation")
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		other, err := NewJWTManager(&config.SecurityConfig{
			JWTSecret:      "ffffffffffffffffffffffffffffffff",
			SessionTimeout: time.Hour,
		})
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		token, err := other.GenerateToken(1, "bob", "user")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		if _, err := m.ValidateToken(token); err == nil {
			t.Error("expected foreign token to fail validation")
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := m.ValidateToken("not.a.token"); err == nil {
			t.Error("expected malformed token to fail validation")
		}
	})

	t.Run("empty secret is rejected at construction", func(t *testing.T) {
		if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
			t.Error("expected constructor error for empty secret")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery")
		if err != nil {
			t.Fatalf("failed to hash: %v", err)
		}
		if !strings.HasPrefix(hash, "$2") {
			t.Errorf("hash does not look like bcrypt: %q", hash[:4])
		}
		if !CheckPassword(hash, "correct horse battery") {
			t.Error("correct password rejected")
		}
		if CheckPassword(hash, "wrong password") {
			t.Error("wrong password accepted")
		}
	})

	t.Run("short password is rejected", func(t *testing.T) {
		if _, err := HashPassword("short"); err == nil {
			t.Error("expected error for short password")
		}
	})
}
