// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package rules

import (
	"errors"
	"testing"
)

func TestApplyPlainRules(t *testing.T) {
	t.Run("case sensitive literal replace hits all occurrences", func(t *testing.T) {
		got, err := Apply("abc abc ABC", []Rule{
			{Search: "abc", Replace: "x", CaseSensitive: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "x x ABC" {
			t.Errorf("got %q, want %q", got, "x x ABC")
		}
	})

	t.Run("case insensitive literal replace preserves surrounding case", func(t *testing.T) {
		got, err := Apply("Hello hello", []Rule{
			{Search: "hello", Replace: "X"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "X X" {
			t.Errorf("got %q, want %q", got, "X X")
		}
	})

	t.Run("literal search with regex metacharacters does not become a pattern", func(t *testing.T) {
		got, err := Apply("a.c abc", []Rule{
			{Search: "a.c", Replace: "z", CaseSensitive: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "z abc" {
			t.Errorf("got %q, want %q", got, "z abc")
		}
	})

	t.Run("literal replacement with dollar sign stays literal", func(t *testing.T) {
		got, err := Apply("price", []Rule{
			{Search: "price", Replace: "$1", CaseSensitive: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "$1" {
			t.Errorf("got %q, want %q", got, "$1")
		}
	})
}

func TestApplyRegexRules(t *testing.T) {
	t.Run("regex with group reference", func(t *testing.T) {
		got, err := Apply("http://example.com/live/stream1", []Rule{
			{Search: `http://([^/]+)/live/`, Replace: "https://$1/hls/", IsRegex: true, CaseSensitive: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://example.com/hls/stream1" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("case insensitive regex", func(t *testing.T) {
		got, err := Apply("UDP://1.2.3.4 udp://5.6.7.8", []Rule{
			{Search: `udp://`, Replace: "rtp://", IsRegex: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "rtp://1.2.3.4 rtp://5.6.7.8" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("invalid pattern aborts and applies nothing after it", func(t *testing.T) {
		_, err := Apply("aaa", []Rule{
			{Search: "a", Replace: "b", CaseSensitive: true},
			{Search: "[", Replace: "x", IsRegex: true},
			{Search: "b", Replace: "c", CaseSensitive: true},
		})
		if err == nil {
			t.Fatal("expected error for invalid pattern")
		}
		var invalidErr *InvalidRuleError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("expected *InvalidRuleError, got %T", err)
		}
		if invalidErr.Index != 1 {
			t.Errorf("expected offending index 1, got %d", invalidErr.Index)
		}
	})
}

func TestApplyOrderingAndNoOps(t *testing.T) {
	t.Run("empty search is skipped", func(t *testing.T) {
		content := "#EXTM3U\n#EXTINF:-1,Ch\nhttp://x\n"
		got, err := Apply(content, []Rule{{Search: "", Replace: "everything"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != content {
			t.Errorf("empty search must be a no-op, got %q", got)
		}
	})

	t.Run("empty rule list returns content unchanged", func(t *testing.T) {
		got, err := Apply("unchanged", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "unchanged" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("rules apply in order on prior output", func(t *testing.T) {
		got, err := Apply("a", []Rule{
			{Search: "a", Replace: "b", CaseSensitive: true},
			{Search: "b", Replace: "c", CaseSensitive: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "c" {
			t.Errorf("got %q, want %q", got, "c")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("accepts plain rules regardless of content", func(t *testing.T) {
		if err := Validate([]Rule{{Search: "[", Replace: "x"}}); err != nil {
			t.Errorf("plain rule should not be compiled as regex: %v", err)
		}
	})

	t.Run("rejects invalid regex with index", func(t *testing.T) {
		err := Validate([]Rule{
			{Search: "ok", IsRegex: true},
			{Search: "(unclosed", IsRegex: true},
		})
		var invalidErr *InvalidRuleError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("expected *InvalidRuleError, got %v", err)
		}
		if invalidErr.Index != 1 {
			t.Errorf("expected index 1, got %d", invalidErr.Index)
		}
	})
}
