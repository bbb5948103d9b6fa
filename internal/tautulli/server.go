// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

import (
	"context"

	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
)

// GetServerInfo retrieves Plex server details from Tautulli
func (c *Client) GetServerInfo(ctx context.Context) (*models.TautulliServerInfo, error) {
	var info models.TautulliServerInfo
	if err := c.makeRequest(ctx, "get_server_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
