// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

/*
client.go - Core Tautulli API Client

This file provides the core Client struct and HTTP communication layer
for interacting with Tautulli's REST API.

Client Features:
  - HTTP client with configurable timeout
  - API key authentication
  - Client-side request pacing (golang.org/x/time/rate)
  - Automatic HTTP 429 rate limit handling with exponential backoff
  - JSON response parsing with typed response structs
  - Context support for cancellation and timeouts

Resilience Mechanisms:
  - Rate Limiting: Exponential backoff (1s, 2s, 4s, 8s, 16s) on HTTP 429
  - Retries: Configurable maximum attempts for rate-limited requests
  - Pacing: Token bucket limiter ahead of every request
  - Context: All methods accept context for cancellation

Related Files:
  - history.go: Playback history methods
  - library.go: Library inventory and metadata methods
  - users.go: User listing methods
  - server.go: Server info methods
  - breaker.go: Circuit breaker wrapper
*/

//nolint:staticcheck // File documentation, not package doc
package tautulli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/metrics"
	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
)

// maxErrorBodySize limits the maximum amount of response body read for error reporting
// This prevents unbounded memory allocation when reading large error responses
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB)
// Returns the body content or a placeholder message if reading fails
// Uses io.LimitReader to prevent unbounded memory allocation
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// Interface defines the Tautulli API operations used by the refresh pipeline.
//
// It is implemented by Client for production use and by mock implementations
// for testing.
//
// All methods follow a consistent pattern:
//   - Accept context.Context as first parameter for cancellation/timeout support
//   - Return typed response structs from internal/models/tautulli
//   - Return error on HTTP failures, API errors, or JSON parse failures
//
// Thread Safety: All methods are safe for concurrent use.
type Interface interface {
	Ping(ctx context.Context) error
	GetLibraries(ctx context.Context) (*models.TautulliLibraries, error)
	GetLibraryMediaInfo(ctx context.Context, sectionID int, start, length int) (*models.TautulliLibraryMediaInfo, error)
	GetMetadata(ctx context.Context, ratingKey string) (*models.TautulliMetadata, error)
	GetHistorySince(ctx context.Context, since time.Time, start, length int) (*models.TautulliHistory, error)
	GetUsersTable(ctx context.Context, start, length int) (*models.TautulliUsersTable, error)
	GetServerInfo(ctx context.Context) (*models.TautulliServerInfo, error)
}

// Client handles communication with the Tautulli HTTP API.
//
// This client implements Interface and provides access to the Tautulli API
// endpoints the refresh pipeline consumes. It includes built-in rate limiting
// with exponential backoff for HTTP 429 responses and a client-side token
// bucket limiter so the metadata fan-out does not hammer Tautulli.
//
// Thread Safety: Safe for concurrent use. Each request creates its own HTTP request.
//
// Example:
//
//	client := tautulli.NewClient(&cfg.Tautulli)
//	if err := client.Ping(ctx); err != nil {
//	    log.Fatal("Tautulli not reachable:", err)
//	}
//	history, err := client.GetHistorySince(ctx, time.Now().AddDate(0, 0, -30), 0, 1000)
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int           // Maximum retries for rate limiting
	retryBaseDelay time.Duration // Base delay for exponential backoff
}

// NewClient creates a new Tautulli API client with the provided configuration.
func NewClient(cfg *config.TautulliConfig) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		// Burst of 1 keeps requests evenly spaced during the metadata fan-out
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        limiter,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// doRequestWithRateLimit performs an HTTP request with automatic rate limit handling.
// Implements exponential backoff for HTTP 429 responses (1s, 2s, 4s, 8s, 16s).
// The context is used for cancellation during backoff waits.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Check context before attempting request
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Pace requests through the token bucket before hitting the wire
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		// Success - return response
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited (HTTP 429) - close body and retry with backoff
		_ = resp.Body.Close() // Explicitly ignore error - will retry anyway
		metrics.TautulliRateLimitRetries.Inc()

		// Last attempt - return error
		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		// Calculate exponential backoff delay: 1s, 2s, 4s, 8s, 16s
		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))

		// Check for Retry-After header (RFC 6585)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			// Try parsing as seconds (integer)
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		// Use cancellable wait instead of time.Sleep
		select {
		case <-time.After(delay):
			// Continue to next attempt
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// makeRequest is a generic helper that handles common Tautulli API request boilerplate.
// It builds the URL with API key and command, makes the request, checks HTTP status,
// decodes JSON response, and validates the Tautulli response wrapper.
//
// Parameters:
//   - ctx: Context for cancellation and timeout support
//   - cmd: Tautulli API command name (e.g., "get_server_info")
//   - params: Additional URL parameters (without apikey/cmd which are added automatically)
//   - result: Pointer to response struct that will be populated
//
// Returns error if request fails, HTTP status is not 200, JSON decode fails,
// or Tautulli response.result != "success".
func (c *Client) makeRequest(ctx context.Context, cmd string, params url.Values, result interface{}) error {
	start := time.Now()
	err := c.doMakeRequest(ctx, cmd, params, result)
	metrics.RecordTautulliRequest(cmd, time.Since(start), err)
	return err
}

func (c *Client) doMakeRequest(ctx context.Context, cmd string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	params.Set("cmd", cmd)

	reqURL := fmt.Sprintf("%s/api/v2?%s", c.baseURL, params.Encode())

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", cmd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", cmd, resp.StatusCode, string(body))
	}

	if err := decodeJSONResponse(resp, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", cmd, err)
	}

	return validateResponse(result, cmd)
}

// decodeJSONResponse decodes HTTP response body into the provided result struct
func decodeJSONResponse(resp *http.Response, result interface{}) error {
	decoder := json.NewDecoder(resp.Body)
	return decoder.Decode(result)
}

// validateResponse checks if the Tautulli API returned success.
// All Tautulli responses have a common wrapper with response.result field.
// This uses reflection to access the Response field since all Tautulli types follow the same pattern.
func validateResponse(result interface{}, cmd string) error {
	v := reflect.ValueOf(result)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil // Skip validation for non-struct types
	}

	responseField := v.FieldByName("Response")
	if !responseField.IsValid() {
		return nil // No Response field, skip validation
	}

	resultField := responseField.FieldByName("Result")
	if !resultField.IsValid() || resultField.Kind() != reflect.String {
		return nil // No Result field or not a string
	}

	if resultField.String() != "success" {
		msg := "unknown error"
		messageField := responseField.FieldByName("Message")
		if messageField.IsValid() && messageField.Kind() == reflect.Ptr && !messageField.IsNil() {
			if messageField.Elem().Kind() == reflect.String {
				msg = messageField.Elem().String()
			}
		}
		return fmt.Errorf("%s request failed: %s", cmd, msg)
	}

	return nil
}

// Ping verifies connectivity to Tautulli API.
// The context is used for cancellation and timeout support.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("cmd", "arnold")

	reqURL := fmt.Sprintf("%s/api/v2?%s", c.baseURL, params.Encode())

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("failed to ping Tautulli: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Tautulli ping failed with status: %d", resp.StatusCode)
	}

	return nil
}
