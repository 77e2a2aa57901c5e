// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package fetch is the only place outbound HTTP happens. It downloads
// playlist content from source URLs and probes source health, with circuit
// breaker protection and a shared rate limit on the download path.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/playlistforge/internal/config"
	"github.com/tomtom215/playlistforge/internal/logging"
	"github.com/tomtom215/playlistforge/internal/m3u"
	"github.com/tomtom215/playlistforge/internal/metrics"
)

// ErrTooLarge is returned when a source serves more than m3u.MaxPlaylistBytes.
var ErrTooLarge = errors.New("playlist exceeds maximum size")

// StatusError reports a non-200 response from a source.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source returned HTTP %d", e.Code)
}

// ProbeResult is the outcome of a single health probe. Probe failures are
// results, not errors; the caller records them either way.
type ProbeResult struct {
	OK       bool
	HTTPCode int
	Detail   string
}

// Client downloads playlists and probes sources.
//
// The download path runs through a circuit breaker and a token bucket shared
// across all sources, so a burst of refreshes cannot hammer upstreams. Probes
// bypass the breaker: each source fails independently and one dead source
// must not suppress probes of the others.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	fetchClient *http.Client
	probeClient *http.Client
	limiter     *rate.Limiter
	cb          *gobreaker.CircuitBreaker[string]
	userAgent   string
}

// NewClient creates a fetch client from configuration.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewClient(cfg *config.FetchConfig) *Client {
	cbName := "source-fetch"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &Client{
		fetchClient: &http.Client{Timeout: cfg.Timeout},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		limiter:     rate.NewLimiter(limit, cfg.RateBurst),
		cb:          cb,
		userAgent:   cfg.UserAgent,
	}
}

// Fetch downloads playlist content from url. It waits for a rate limit slot,
// then runs the request through the circuit breaker. Only a final HTTP 200
// yields content; anything else is a StatusError. Bodies over
// m3u.MaxPlaylistBytes are rejected with ErrTooLarge without buffering the
// remainder.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	content, err := c.cb.Execute(func() (string, error) {
		return c.doFetch(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.cb.Name(), "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(c.cb.Name(), "failure").Inc()
		}
		return "", err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(c.cb.Name(), "success").Inc()
	return content, nil
}

func (c *Client) doFetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}

	// Read one byte past the cap so the limit check can distinguish
	// exactly-at-cap from over-cap.
	body, err := io.ReadAll(io.LimitReader(resp.Body, m3u.MaxPlaylistBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) > m3u.MaxPlaylistBytes {
		return "", ErrTooLarge
	}
	return string(body), nil
}

// Probe issues a HEAD request to url, following redirects, and reports OK
// only when the final response is HTTP 200. Network failures land in Detail.
func (c *Client) Probe(ctx context.Context, url string) ProbeResult {
	start := time.Now()
	result := c.doProbe(ctx, url)
	metrics.RecordProbe(result.OK, time.Since(start))
	return result
}

func (c *Client) doProbe(ctx context.Context, url string) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ProbeResult{Detail: fmt.Sprintf("invalid source URL: %v", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return ProbeResult{Detail: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return ProbeResult{
			HTTPCode: resp.StatusCode,
			Detail:   fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return ProbeResult{OK: true, HTTPCode: http.StatusOK}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
