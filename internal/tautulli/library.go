// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

import (
	"context"
	"fmt"
	"net/url"

	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
)

// GetLibraries retrieves all library sections from Tautulli
func (c *Client) GetLibraries(ctx context.Context) (*models.TautulliLibraries, error) {
	var libraries models.TautulliLibraries
	if err := c.makeRequest(ctx, "get_libraries", nil, &libraries); err != nil {
		return nil, err
	}
	return &libraries, nil
}

// GetLibraryMediaInfo retrieves a page of items for a library section.
// Results are ordered by added_at descending so a refresh sees new
// content first.
func (c *Client) GetLibraryMediaInfo(ctx context.Context, sectionID int, start, length int) (*models.TautulliLibraryMediaInfo, error) {
	params := url.Values{}
	params.Set("section_id", fmt.Sprintf("%d", sectionID))
	params.Set("order_column", "added_at")
	params.Set("order_dir", "desc")
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("length", fmt.Sprintf("%d", length))

	var info models.TautulliLibraryMediaInfo
	if err := c.makeRequest(ctx, "get_library_media_info", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetMetadata retrieves full metadata (including genres) for a single rating key.
// Tautulli returns an empty data object for unknown rating keys; callers must
// check for a blank RatingKey in the result.
func (c *Client) GetMetadata(ctx context.Context, ratingKey string) (*models.TautulliMetadata, error) {
	params := url.Values{}
	params.Set("rating_key", ratingKey)

	var metadata models.TautulliMetadata
	if err := c.makeRequest(ctx, "get_metadata", params, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

