// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateTautulli(); err != nil {
		return err
	}

	if err := c.validateRefresh(); err != nil {
		return err
	}

	if err := c.validateRanking(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateTautulli validates the upstream connection settings.
func (c *Config) validateTautulli() error {
	if c.Tautulli.URL == "" {
		return fmt.Errorf("TAUTULLI_URL is required")
	}
	if err := validateHTTPURL(c.Tautulli.URL, "TAUTULLI_URL"); err != nil {
		return fmt.Errorf("TAUTULLI_URL is invalid: %w", err)
	}
	if c.Tautulli.APIKey == "" {
		return fmt.Errorf("TAUTULLI_API_KEY is required")
	}
	if c.Tautulli.Timeout <= 0 {
		return fmt.Errorf("TAUTULLI_TIMEOUT must be positive, got %s", c.Tautulli.Timeout)
	}
	if c.Tautulli.MaxRetries < 0 {
		return fmt.Errorf("TAUTULLI_MAX_RETRIES must not be negative, got %d", c.Tautulli.MaxRetries)
	}
	if c.Tautulli.RequestsPerSecond < 0 {
		return fmt.Errorf("TAUTULLI_REQUESTS_PER_SECOND must not be negative, got %f", c.Tautulli.RequestsPerSecond)
	}
	return nil
}

// validateRefresh validates refresh cycle settings.
func (c *Config) validateRefresh() error {
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.Refresh.Interval)
	}
	if c.Refresh.Lookback <= 0 {
		return fmt.Errorf("REFRESH_LOOKBACK must be positive, got %s", c.Refresh.Lookback)
	}
	if c.Refresh.PageSize <= 0 {
		return fmt.Errorf("REFRESH_PAGE_SIZE must be positive, got %d", c.Refresh.PageSize)
	}
	if c.Refresh.MetadataConcurrency <= 0 {
		return fmt.Errorf("REFRESH_METADATA_CONCURRENCY must be positive, got %d", c.Refresh.MetadataConcurrency)
	}
	return nil
}

// validateRanking validates ranking metric weights.
func (c *Config) validateRanking() error {
	if c.Ranking.DefaultLimit <= 0 {
		return fmt.Errorf("RANKING_DEFAULT_LIMIT must be positive, got %d", c.Ranking.DefaultLimit)
	}
	if c.Ranking.DurationWeight < 0 || c.Ranking.DiversityWeight < 0 {
		return fmt.Errorf("ranking weights must not be negative, got duration=%f diversity=%f",
			c.Ranking.DurationWeight, c.Ranking.DiversityWeight)
	}
	if c.Ranking.DurationWeight == 0 && c.Ranking.DiversityWeight == 0 {
		return fmt.Errorf("at least one ranking weight must be nonzero")
	}
	return nil
}

// validateRecommend validates recommendation engine settings.
func (c *Config) validateRecommend() error {
	if c.Recommend.DefaultLimit <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be positive, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT (%d) must be >= RECOMMEND_DEFAULT_LIMIT (%d)",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	for _, mt := range c.Recommend.MediaTypes {
		switch strings.ToLower(mt) {
		case "movie", "show", "episode":
		default:
			return fmt.Errorf("RECOMMEND_MEDIA_TYPES contains unknown media type %q", mt)
		}
	}
	return nil
}

// validateServer validates HTTP server settings.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("SERVER_RATE_LIMIT_REQUESTS must be positive, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("SERVER_RATE_LIMIT_WINDOW must be positive, got %s", c.Server.RateLimitWindow)
		}
	}
	return nil
}

// validateLogging validates logging settings.
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value parses as an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s does not parse as a URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
