// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package store

import "time"

// Media type constants as stored in snapshots. The pseudo type "tv" is
// accepted in filters and expands to show + episode.
const (
	MediaTypeMovie   = "movie"
	MediaTypeShow    = "show"
	MediaTypeEpisode = "episode"
	MediaTypeTV      = "tv"
)

// MediaItem is one library item in a published snapshot. Items are created
// wholesale during a refresh and never mutated afterwards; ownership belongs
// exclusively to the snapshot that carries them.
type MediaItem struct {
	RatingKey            string    `json:"rating_key"`
	ParentRatingKey      string    `json:"parent_rating_key,omitempty"`
	GrandparentRatingKey string    `json:"grandparent_rating_key,omitempty"`
	MediaType            string    `json:"media_type"`
	Title                string    `json:"title"`
	ParentTitle          string    `json:"parent_title,omitempty"`
	GrandparentTitle     string    `json:"grandparent_title,omitempty"`
	Year                 int       `json:"year,omitempty"`
	Genres               []string  `json:"genres"` // lowercased, order preserved from upstream
	Summary              string    `json:"summary,omitempty"`
	Thumb                string    `json:"thumb,omitempty"`
	LibraryName          string    `json:"library_name,omitempty"`
	DurationSeconds      int       `json:"duration_seconds,omitempty"`
	Rating               float64   `json:"rating,omitempty"`
	AddedAt              time.Time `json:"added_at"`
}

// HasGenre reports whether the item carries the given lowercased genre tag.
func (m *MediaItem) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// WatchEvent is one raw playback record as normalized from upstream history.
// Events are consumed during profile aggregation and not retained beyond it.
type WatchEvent struct {
	UserID               int
	Username             string
	FriendlyName         string
	RatingKey            string
	ParentRatingKey      string
	GrandparentRatingKey string
	MediaType            string
	Title                string
	WatchedAt            time.Time
	DurationSeconds      int
}
