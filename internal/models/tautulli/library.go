// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

// TautulliLibraries represents the API response from get_libraries endpoint
type TautulliLibraries struct {
	Response TautulliLibrariesResponse `json:"response"`
}

type TautulliLibrariesResponse struct {
	Result  string                  `json:"result"`
	Message *string                 `json:"message,omitempty"`
	Data    []TautulliLibraryDetail `json:"data"`
}

type TautulliLibraryDetail struct {
	SectionID   int    `json:"section_id"`
	SectionName string `json:"section_name"`
	SectionType string `json:"section_type"`
	Count       int    `json:"count"`
	ParentCount int    `json:"parent_count"`
	ChildCount  int    `json:"child_count"`
	IsActive    int    `json:"is_active"`
	Thumb       string `json:"thumb"`
	Art         string `json:"art"`
}

// TautulliLibraryMediaInfo represents the API response from get_library_media_info endpoint.
// The Data payload is paginated; callers page with start/length until
// RecordsFiltered rows have been consumed.
type TautulliLibraryMediaInfo struct {
	Response TautulliLibraryMediaInfoResponse `json:"response"`
}

type TautulliLibraryMediaInfoResponse struct {
	Result  string                       `json:"result"`
	Message *string                      `json:"message,omitempty"`
	Data    TautulliLibraryMediaInfoData `json:"data"`
}

type TautulliLibraryMediaInfoData struct {
	RecordsFiltered int                           `json:"recordsFiltered"`
	RecordsTotal    int                           `json:"recordsTotal"`
	Draw            int                           `json:"draw,omitempty"`
	Data            []TautulliLibraryMediaInfoRow `json:"data"`
}

type TautulliLibraryMediaInfoRow struct {
	SectionID            int    `json:"section_id"`
	SectionType          string `json:"section_type"`
	AddedAt              int64  `json:"added_at"`
	MediaType            string `json:"media_type"`
	RatingKey            string `json:"rating_key"`
	ParentRatingKey      string `json:"parent_rating_key,omitempty"`
	GrandparentRatingKey string `json:"grandparent_rating_key,omitempty"`
	Title                string `json:"title"`
	Year                 int    `json:"year,omitempty"`
	MediaIndex           int    `json:"media_index,omitempty"`
	ParentMediaIndex     int    `json:"parent_media_index,omitempty"`
	Thumb                string `json:"thumb,omitempty"`
	Container            string `json:"container,omitempty"`
	VideoResolution      string `json:"video_resolution,omitempty"`
	FileSize             int64  `json:"file_size,omitempty"`
	LastPlayed           int64  `json:"last_played,omitempty"`
	PlayCount            int    `json:"play_count,omitempty"`
}
