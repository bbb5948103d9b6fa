// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Refresh cycle outcomes and durations
// - Published snapshot size, version and staleness
// - Tautulli API request latency and errors
// - API endpoint latency and throughput
// - Circuit breaker state
// - WebSocket connections

var (
	// Refresh Cycle Metrics
	RefreshCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_cycles_total",
			Help: "Total number of cache refresh cycles by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refresh_cycle_duration_seconds",
			Help:    "Duration of full cache refresh cycles in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RefreshConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refresh_consecutive_failures",
			Help: "Number of consecutive failed refresh cycles",
		},
	)

	RefreshCoalescedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_coalesced_requests_total",
			Help: "Total number of refresh requests coalesced into an in-flight cycle",
		},
	)

	// Snapshot Metrics
	SnapshotItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_media_items",
			Help: "Number of media items in the published snapshot",
		},
	)

	SnapshotProfiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_watch_profiles",
			Help: "Number of user watch profiles in the published snapshot",
		},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_version",
			Help: "Monotonic version of the published snapshot",
		},
	)

	SnapshotStale = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_stale",
			Help: "1 when the published snapshot is older than one refresh interval",
		},
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_age_seconds",
			Help: "Age of the published snapshot in seconds",
		},
	)

	// Tautulli API Metrics
	TautulliRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tautulli_requests_total",
			Help: "Total number of Tautulli API requests",
		},
		[]string{"cmd", "outcome"}, // outcome: "success", "failure"
	)

	TautulliRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tautulli_request_duration_seconds",
			Help:    "Tautulli API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cmd"},
	)

	TautulliRateLimitRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tautulli_rate_limit_retries_total",
			Help: "Total number of retries triggered by Tautulli HTTP 429 responses",
		},
	)

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
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
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
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "outcome"}, // outcome: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages broadcast to WebSocket clients",
		},
	)
)

// RecordRefreshCycle records the outcome and duration of a refresh cycle.
func RecordRefreshCycle(duration time.Duration, err error) {
	if err != nil {
		RefreshCyclesTotal.WithLabelValues("failure").Inc()
		return
	}
	RefreshCyclesTotal.WithLabelValues("success").Inc()
	RefreshDuration.Observe(duration.Seconds())
}

// RecordSnapshot updates the snapshot gauges after a publish.
func RecordSnapshot(version int64, items, profiles int) {
	SnapshotVersion.Set(float64(version))
	SnapshotItems.Set(float64(items))
	SnapshotProfiles.Set(float64(profiles))
	SnapshotAge.Set(0)
	SnapshotStale.Set(0)
}

// RecordTautulliRequest records a single Tautulli API call.
func RecordTautulliRequest(cmd string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TautulliRequestsTotal.WithLabelValues(cmd, outcome).Inc()
	TautulliRequestDuration.WithLabelValues(cmd).Observe(duration.Seconds())
}

// RecordAPIRequest records HTTP endpoint metrics.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
