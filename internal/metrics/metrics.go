// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Playlist refresh pipeline (scheduled and manual)
// - Source health probes
// - Raw playlist reads
// - Outbound fetch circuit breaker

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Refresh Pipeline Metrics
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_refresh_total",
			Help: "Total number of playlist refresh attempts",
		},
		[]string{"trigger", "outcome"}, // trigger: "scheduled"/"manual", outcome: "success"/"failure"/"skipped"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlist_refresh_duration_seconds",
			Help:    "Duration of playlist refresh operations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	RefreshQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlist_refresh_queue_depth",
			Help: "Playlists queued for refresh in the current scheduler pass",
		},
	)

	// Health Probe Metrics
	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_probe_total",
			Help: "Total number of source health probes",
		},
		[]string{"outcome"}, // "ok"/"fail"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "source_probe_duration_seconds",
			Help:    "Duration of source health probes in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Playlist Read Metrics
	PlaylistReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_reads_total",
			Help: "Total number of raw playlist content reads",
		},
	)

	PlaylistBytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_bytes_served_total",
			Help: "Total bytes of playlist content served",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success"/"failure"/"rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records latency and count for one handled request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRefresh records one refresh attempt outcome.
func RecordRefresh(trigger, outcome string, duration time.Duration) {
	RefreshTotal.WithLabelValues(trigger, outcome).Inc()
	if outcome != "skipped" {
		RefreshDuration.Observe(duration.Seconds())
	}
}

// RecordProbe records one health probe outcome.
func RecordProbe(ok bool, duration time.Duration) {
	outcome := "fail"
	if ok {
		outcome = "ok"
	}
	ProbeTotal.WithLabelValues(outcome).Inc()
	ProbeDuration.Observe(duration.Seconds())
}

// RecordPlaylistRead records one raw content read.
func RecordPlaylistRead(bytes int) {
	PlaylistReadsTotal.Inc()
	PlaylistBytesServed.Add(float64(bytes))
}
