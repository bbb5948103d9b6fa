// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables
// and an optional YAML config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Tautulli.URL, cfg.Refresh.Interval, etc. are now populated
//
// Validation:
// Load() validates all required fields and returns an error if required
// settings are missing (TAUTULLI_URL, TAUTULLI_API_KEY) or malformed
// (invalid URL format, non-positive intervals, negative weights).
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access
// from multiple goroutines.
type Config struct {
	Tautulli  TautulliConfig  `koanf:"tautulli"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Recommend RecommendConfig `koanf:"recommend"`
	Random    RandomConfig    `koanf:"random"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TautulliConfig holds Tautulli connection settings. Tautulli is the sole
// upstream data source: it provides the library inventory, per-item metadata
// and the playback history that watch profiles are aggregated from.
//
// Environment Variables:
//   - TAUTULLI_URL: Tautulli server URL (e.g., http://localhost:8181)
//   - TAUTULLI_API_KEY: Tautulli API key from Settings > Web Interface
//   - TAUTULLI_TIMEOUT: Per-request HTTP timeout (default: 30s)
type TautulliConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries bounds retry attempts on HTTP 429 responses.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the first backoff delay; it doubles each retry.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RequestsPerSecond paces the metadata fan-out against the Tautulli API.
	// Zero disables client-side pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// RefreshConfig controls the cache refresh cycle.
//
// Environment Variables:
//   - REFRESH_INTERVAL: Time between automatic refresh cycles (default: 1h)
//   - REFRESH_LOOKBACK: History aggregation window (default: 720h / 30 days)
//   - REFRESH_PAGE_SIZE: Upstream pagination size (default: 1000)
//   - REFRESH_METADATA_CONCURRENCY: Parallel get_metadata requests (default: 10)
//   - REFRESH_READY_TIMEOUT: Bound on waiting for the first snapshot (default: 2m)
type RefreshConfig struct {
	Interval            time.Duration `koanf:"interval"`
	Lookback            time.Duration `koanf:"lookback"`
	PageSize            int           `koanf:"page_size"`
	MetadataConcurrency int           `koanf:"metadata_concurrency"`
	ReadyTimeout        time.Duration `koanf:"ready_timeout"`
}

// RankingConfig controls the top-N watcher ranking.
//
// The ranking metric is a weighted combination of total watch duration and
// genre diversity. The default weights (1.0, 0.0) rank by pure duration.
// Deployments that want diversity-adjusted rankings set a nonzero
// diversity weight; the weights are deployment policy, never hard-coded.
type RankingConfig struct {
	DefaultLimit    int     `koanf:"default_limit"`
	DurationWeight  float64 `koanf:"duration_weight"`
	DiversityWeight float64 `koanf:"diversity_weight"`
}

// RecommendConfig controls the genre-affinity recommendation engine.
type RecommendConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// MediaTypes restricts recommendation candidates; empty means
	// movies and shows (episodes are never recommended directly).
	MediaTypes []string `koanf:"media_types"`
}

// RandomConfig controls the random selector.
type RandomConfig struct {
	// Seed fixes the random source for reproducible selections in tests.
	// Zero (the default) seeds from entropy.
	Seed int64 `koanf:"seed"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
