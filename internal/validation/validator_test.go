// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package validation

import (
	"strings"
	"testing"
)

type registerForm struct {
	Username string `validate:"required,min=3,max=32"`
	Password string `validate:"required,min=8"`
}

type updateForm struct {
	SourceURL string `validate:"omitempty,url"`
	Interval  int    `validate:"omitempty,gte=30,lte=86400"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		if err := ValidateStruct(&registerForm{Username: "alice", Password: "longenough"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(&registerForm{Password: "longenough"})
		if err == nil {
			t.Fatal("expected validation error")
		}
		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("code = %q", apiErr.Code)
		}
		if !strings.Contains(apiErr.Message, "Username is required") {
			t.Errorf("message = %q", apiErr.Message)
		}
	})

	t.Run("multiple failures list all fields", func(t *testing.T) {
		err := ValidateStruct(&registerForm{Username: "ab", Password: "short"})
		if err == nil {
			t.Fatal("expected validation error")
		}
		if len(err.Errors()) != 2 {
			t.Fatalf("got %d errors, want 2", len(err.Errors()))
		}
		apiErr := err.ToAPIError()
		if _, ok := apiErr.Details["fields"]; !ok {
			t.Error("expected per-field details for multiple failures")
		}
	})

	t.Run("interval bounds", func(t *testing.T) {
		if err := ValidateStruct(&updateForm{Interval: 29}); err == nil {
			t.Error("expected error for interval below minimum")
		}
		if err := ValidateStruct(&updateForm{Interval: 86401}); err == nil {
			t.Error("expected error for interval above maximum")
		}
		if err := ValidateStruct(&updateForm{Interval: 30}); err != nil {
			t.Errorf("unexpected error at lower bound: %v", err)
		}
	})

	t.Run("url tag", func(t *testing.T) {
		if err := ValidateStruct(&updateForm{SourceURL: "not a url"}); err == nil {
			t.Error("expected error for invalid URL")
		}
		if err := ValidateStruct(&updateForm{SourceURL: "http://src.example/list.m3u"}); err != nil {
			t.Errorf("unexpected error for valid URL: %v", err)
		}
	})

	t.Run("bounds message includes parameter", func(t *testing.T) {
		err := ValidateStruct(&updateForm{Interval: 10})
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "30") {
			t.Errorf("message should name the bound: %q", err.Error())
		}
	})
}
