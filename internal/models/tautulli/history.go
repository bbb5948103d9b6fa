// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

// TautulliHistory represents the API response from Tautulli's get_history endpoint
type TautulliHistory struct {
	Response TautulliHistoryResponse `json:"response"`
}

type TautulliHistoryResponse struct {
	Result  string              `json:"result"`
	Message *string             `json:"message,omitempty"`
	Data    TautulliHistoryData `json:"data"`
}

type TautulliHistoryData struct {
	RecordsFiltered int                     `json:"recordsFiltered"`
	RecordsTotal    int                     `json:"recordsTotal"`
	Data            []TautulliHistoryRecord `json:"data"`
}

// TautulliHistoryRecord represents a single playback history record from
// Tautulli's get_history endpoint. Only the fields watch profiles are
// aggregated from are modeled.
//
// Note: Duration is in SECONDS (unlike get_activity which returns milliseconds)
type TautulliHistoryRecord struct {
	// Session identification
	// Pointer type allows distinguishing null from zero value in Tautulli API responses
	SessionKey *string `json:"session_key"` // Nullable - null when session ended
	Date       int64   `json:"date"`
	Started    int64   `json:"started"`
	Stopped    int64   `json:"stopped"`

	// User information
	// Pointer type allows distinguishing null from zero value in Tautulli API responses
	UserID       *int   `json:"user_id"` // Nullable - may be null in edge cases
	User         string `json:"user"`
	FriendlyName string `json:"friendly_name"`

	// Media identification
	// Rating keys are numeric in history responses; nil when null
	RatingKey            *int    `json:"rating_key"`
	ParentRatingKey      *int    `json:"parent_rating_key"`
	GrandparentRatingKey *int    `json:"grandparent_rating_key"`
	MediaType            string  `json:"media_type"`
	Title                string  `json:"title"`
	ParentTitle          *string `json:"parent_title"`      // Nullable - null for movies
	GrandparentTitle     *string `json:"grandparent_title"` // Nullable - null for movies

	// Playback metrics
	// Pointer type allows distinguishing null from zero value in Tautulli API responses
	PercentComplete *int     `json:"percent_complete"` // Nullable
	PausedCounter   *int     `json:"paused_counter"`   // Nullable
	Duration        *int     `json:"duration"`         // In SECONDS, nullable for live
	WatchedStatus   *float64 `json:"watched_status"`   // Watch progress 0.0-1.0 (nullable)
}
