// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/m3u"
)

func newTestClient() *Client {
	return NewClient(&config.FetchConfig{
		Timeout:      5 * time.Second,
		ProbeTimeout: 2 * time.Second,
		UserAgent:    "Playlistforge/1.0",
		RatePerSec:   0, // unlimited in tests
		RateBurst:    1,
	})
}

func TestFetch(t *testing.T) {
	t.Run("returns body on 200", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:-1,One\nhttp://x/1\n"))
		}))
		defer srv.Close()

		content, err := newTestClient().Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !strings.HasPrefix(content, "#EXTM3U") {
			t.Errorf("unexpected content: %q", content)
		}
		if gotUA != "Playlistforge/1.0" {
			t.Errorf("user agent = %q", gotUA)
		}
	})

	t.Run("non-200 is a StatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := newTestClient().Fetch(context.Background(), srv.URL)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", statusErr.Code)
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chunk := strings.Repeat("x", 64*1024)
			for written := 0; written <= m3u.MaxPlaylistBytes; written += len(chunk) {
				if _, err := w.Write([]byte(chunk)); err != nil {
					return
				}
			}
		}))
		defer srv.Close()

		_, err := newTestClient().Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("expected ErrTooLarge, got %v", err)
		}
	})

	t.Run("body exactly at cap is accepted", func(t *testing.T) {
		exact := strings.Repeat("y", m3u.MaxPlaylistBytes)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(exact))
		}))
		defer srv.Close()

		content, err := newTestClient().Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(content) != m3u.MaxPlaylistBytes {
			t.Errorf("content length = %d, want %d", len(content), m3u.MaxPlaylistBytes)
		}
	})

	t.Run("circuit opens after sustained failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := newTestClient()
		for i := 0; i < 10; i++ {
			if _, err := client.Fetch(context.Background(), srv.URL); err == nil {
				t.Fatalf("fetch %d unexpectedly succeeded", i)
			}
		}

		// The breaker has seen 10 failures out of 10; the next call must be
		// rejected without reaching the server.
		_, err := client.Fetch(context.Background(), srv.URL)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			t.Fatalf("request reached the server through an open circuit: %v", err)
		}
		if err == nil {
			t.Fatal("expected rejection from open circuit")
		}
	})
}

func TestProbe(t *testing.T) {
	t.Run("200 is OK", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("probe used %s, want HEAD", r.Method)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		result := newTestClient().Probe(context.Background(), srv.URL)
		if !result.OK || result.HTTPCode != http.StatusOK {
			t.Errorf("result = %+v, want OK 200", result)
		}
	})

	t.Run("non-200 is a failure with the code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		result := newTestClient().Probe(context.Background(), srv.URL)
		if result.OK {
			t.Error("expected failure on 404")
		}
		if result.HTTPCode != http.StatusNotFound {
			t.Errorf("code = %d, want 404", result.HTTPCode)
		}
		if result.Detail == "" {
			t.Error("expected detail for failed probe")
		}
	})

	t.Run("redirect to 200 is OK", func(t *testing.T) {
		final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer final.Close()
		redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, final.URL, http.StatusFound)
		}))
		defer redirecting.Close()

		result := newTestClient().Probe(context.Background(), redirecting.URL)
		if !result.OK {
			t.Errorf("result = %+v, want OK after redirect", result)
		}
	})

	t.Run("unreachable host is a failure with detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		result := newTestClient().Probe(context.Background(), url)
		if result.OK {
			t.Error("expected failure for closed server")
		}
		if result.Detail == "" {
			t.Error("expected connection error detail")
		}
	})
}
