// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

/*
history.go - Tautulli Playback History Methods

This file provides methods for retrieving playback history from Tautulli,
which is the data source for user watch profiles.

NOTE: This file uses encoding/json instead of go-json because go-json
issue #340 causes "expected comma after object element" parsing errors
with large Tautulli API responses (500+ records).

Pagination:
History endpoints support pagination via:
  - start: Starting record index
  - length: Number of records to retrieve
  - order_column/order_dir: Sorting configuration

The default configuration orders by "started" timestamp descending (newest first).
*/

//nolint:staticcheck // File documentation, not package doc
package tautulli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/tomtom215/plexwatch/internal/metrics"
	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
)

// GetHistorySince retrieves playback history since a specific timestamp
func (c *Client) GetHistorySince(ctx context.Context, since time.Time, start, length int) (*models.TautulliHistory, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("cmd", "get_history")
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("length", fmt.Sprintf("%d", length))
	params.Set("order_column", "started")
	params.Set("order_dir", "desc")
	// Tautulli API expects date in "YYYY-MM-DD" format, not Unix timestamp
	params.Set("after", since.Format("2006-01-02"))
	// Disable session grouping to get individual playback records
	// Without this, Tautulli groups consecutive plays of the same content by the same user
	params.Set("grouping", "0")

	return c.doHistoryRequest(ctx, params)
}

// doHistoryRequest performs a history API request with common error handling.
// NOTE: Uses encoding/json instead of go-json due to go-json issue #340
// causing "expected comma after object element" errors with large API responses.
func (c *Client) doHistoryRequest(ctx context.Context, params url.Values) (*models.TautulliHistory, error) {
	start := time.Now()
	history, err := c.fetchHistory(ctx, params)
	metrics.RecordTautulliRequest("get_history", time.Since(start), err)
	return history, err
}

func (c *Client) fetchHistory(ctx context.Context, params url.Values) (*models.TautulliHistory, error) {
	reqURL := fmt.Sprintf("%s/api/v2?%s", c.baseURL, params.Encode())

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to make history request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("history request failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Read the full response body for JSON parsing. History responses can be
	// large (500+ records = several MB), so readBodyForError's 64KB limit
	// does not apply here.
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read history response body: %w", err)
	}

	var history models.TautulliHistory
	if err := json.Unmarshal(bodyBytes, &history); err != nil {
		maxLen := 2000
		if len(bodyBytes) < maxLen {
			maxLen = len(bodyBytes)
		}
		return nil, fmt.Errorf("failed to decode history response (showing first %d chars): %w\nJSON: %s", maxLen, err, string(bodyBytes[:maxLen]))
	}

	if history.Response.Result != "success" {
		msg := "unknown error"
		if history.Response.Message != nil {
			msg = *history.Response.Message
		}
		return nil, fmt.Errorf("history request failed: %s", msg)
	}

	return &history, nil
}
