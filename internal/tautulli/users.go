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

// GetUsersTable retrieves a page of known users with their play totals.
func (c *Client) GetUsersTable(ctx context.Context, start, length int) (*models.TautulliUsersTable, error) {
	params := url.Values{}
	params.Set("order_column", "friendly_name")
	params.Set("order_dir", "asc")
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("length", fmt.Sprintf("%d", length))

	var users models.TautulliUsersTable
	if err := c.makeRequest(ctx, "get_users_table", params, &users); err != nil {
		return nil, err
	}
	return &users, nil
}
