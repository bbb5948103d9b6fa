// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package refresh

import (
	"strconv"
	"strings"
	"time"

	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
	"github.com/tomtom215/plexwatch/internal/store"
)

// normalizeGenres lowercases and trims genre tags, dropping empties and
// duplicates while preserving upstream order.
func normalizeGenres(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// cacheableMediaType reports whether a media type belongs in the snapshot.
func cacheableMediaType(mediaType string) bool {
	switch mediaType {
	case store.MediaTypeMovie, store.MediaTypeShow, store.MediaTypeEpisode:
		return true
	default:
		return false
	}
}

// itemFromMetadata converts a get_metadata payload into a MediaItem.
//
// Returns (nil, nil) for items that should be skipped rather than cached:
// unknown rating keys (Tautulli answers those with an empty data object),
// non-library media types, and items with no usable title. Skipping is a
// data quality filter, not a payload shape error, so it does not abort
// the refresh cycle.
func itemFromMetadata(data *models.TautulliMetadataData) (*store.MediaItem, error) {
	if data.RatingKey == "" {
		return nil, nil // deleted or unknown item
	}

	mediaType := strings.ToLower(data.MediaType)
	if !cacheableMediaType(mediaType) {
		return nil, nil
	}

	if strings.TrimSpace(data.Title) == "" {
		return nil, nil // no-title items are never servable
	}

	item := &store.MediaItem{
		RatingKey:            data.RatingKey,
		ParentRatingKey:      data.ParentRatingKey,
		GrandparentRatingKey: data.GrandparentRatingKey,
		MediaType:            mediaType,
		Title:                data.Title,
		ParentTitle:          data.ParentTitle,
		GrandparentTitle:     data.GrandparentTitle,
		Year:                 data.Year,
		Genres:               normalizeGenres(data.Genres),
		Summary:              data.Summary,
		Thumb:                data.Thumb,
		LibraryName:          data.LibraryName,
		DurationSeconds:      data.Duration,
		Rating:               data.Rating,
	}
	if data.AddedAt > 0 {
		item.AddedAt = time.Unix(data.AddedAt, 0).UTC()
	}
	return item, nil
}

// eventFromHistoryRecord normalizes one history record into a WatchEvent.
// A missing user ID, missing rating key, or absent timestamp is a
// ParseError - handled like a fetch error for the cycle, never silently
// defaulted. A null duration is legitimate (live sessions) and maps to 0.
func eventFromHistoryRecord(rec *models.TautulliHistoryRecord) (*store.WatchEvent, error) {
	if rec.UserID == nil {
		return nil, &ParseError{Field: "user_id", Reason: "missing"}
	}
	if rec.RatingKey == nil {
		return nil, &ParseError{Field: "rating_key", Reason: "missing"}
	}

	watchedAt := rec.Date
	if watchedAt == 0 {
		watchedAt = rec.Started
	}
	if watchedAt <= 0 {
		return nil, &ParseError{Field: "date", Reason: "missing or malformed timestamp"}
	}

	ev := &store.WatchEvent{
		UserID:       *rec.UserID,
		Username:     rec.User,
		FriendlyName: rec.FriendlyName,
		RatingKey:    strconv.Itoa(*rec.RatingKey),
		MediaType:    strings.ToLower(rec.MediaType),
		Title:        rec.Title,
		WatchedAt:    time.Unix(watchedAt, 0).UTC(),
	}
	if rec.ParentRatingKey != nil {
		ev.ParentRatingKey = strconv.Itoa(*rec.ParentRatingKey)
	}
	if rec.GrandparentRatingKey != nil {
		ev.GrandparentRatingKey = strconv.Itoa(*rec.GrandparentRatingKey)
	}
	if rec.Duration != nil {
		ev.DurationSeconds = *rec.Duration
	}
	return ev, nil
}
