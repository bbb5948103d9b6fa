// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

// TautulliMetadata represents the API response from Tautulli's get_metadata endpoint
type TautulliMetadata struct {
	Response TautulliMetadataResponse `json:"response"`
}

type TautulliMetadataResponse struct {
	Result  string               `json:"result"`
	Message *string              `json:"message,omitempty"`
	Data    TautulliMetadataData `json:"data"`
}

// TautulliMetadataData carries per-item metadata. Tautulli returns an empty
// object (not an error) for rating keys it no longer knows about, so callers
// must treat a blank RatingKey as item-not-found.
type TautulliMetadataData struct {
	RatingKey             string   `json:"rating_key"`
	ParentRatingKey       string   `json:"parent_rating_key"`
	GrandparentRatingKey  string   `json:"grandparent_rating_key"`
	MediaType             string   `json:"media_type"`
	LibraryName           string   `json:"library_name"`
	Title                 string   `json:"title"`
	ParentTitle           string   `json:"parent_title"`
	GrandparentTitle      string   `json:"grandparent_title"`
	OriginalTitle         string   `json:"original_title"`
	SortTitle             string   `json:"sort_title"`
	MediaIndex            int      `json:"media_index"`
	ParentMediaIndex      int      `json:"parent_media_index"`
	Studio                string   `json:"studio"`
	ContentRating         string   `json:"content_rating"`
	Summary               string   `json:"summary"`
	Tagline               string   `json:"tagline"`
	Rating                float64  `json:"rating"`
	AudienceRating        float64  `json:"audience_rating"`
	UserRating            float64  `json:"user_rating"`
	Duration              int      `json:"duration"`
	Year                  int      `json:"year"`
	Thumb                 string   `json:"thumb"`
	ParentThumb           string   `json:"parent_thumb"`
	GrandparentThumb      string   `json:"grandparent_thumb"`
	Art                   string   `json:"art"`
	OriginallyAvailableAt string   `json:"originally_available_at"`
	AddedAt               int64    `json:"added_at"`
	UpdatedAt             int64    `json:"updated_at"`
	LastViewedAt          int64    `json:"last_viewed_at"`
	GUID                  string   `json:"guid"`
	Directors             []string `json:"directors"`
	Writers               []string `json:"writers"`
	Actors                []string `json:"actors"`
	Genres                []string `json:"genres"`
	Labels                []string `json:"labels"`
	Collections           []string `json:"collections"`
}
