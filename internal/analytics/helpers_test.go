// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package analytics

import (
	"time"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/store"
)

var fixtureEpoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func movieItem(key, title string, addedOffset time.Duration, genres ...string) *store.MediaItem {
	return &store.MediaItem{
		RatingKey: key,
		MediaType: store.MediaTypeMovie,
		Title:     title,
		Genres:    genres,
		AddedAt:   fixtureEpoch.Add(addedOffset),
	}
}

func watchEvent(userID int, username, ratingKey string, duration int, at time.Duration) *store.WatchEvent {
	return &store.WatchEvent{
		UserID:          userID,
		Username:        username,
		RatingKey:       ratingKey,
		MediaType:       store.MediaTypeMovie,
		WatchedAt:       fixtureEpoch.Add(at),
		DurationSeconds: duration,
	}
}

// publish builds a snapshot from the given items and events and installs
// it as version 1 of a fresh store.
func publish(items []*store.MediaItem, events []*store.WatchEvent) *store.Store {
	sb := store.NewSnapshotBuilder()
	for _, item := range items {
		sb.AddItem(item)
	}
	for _, ev := range events {
		sb.AddEvent(ev)
	}
	st := store.New()
	st.Publish(sb.Build(1, fixtureEpoch))
	return st
}

func rankingConfig() *config.RankingConfig {
	return &config.RankingConfig{DefaultLimit: 10, DurationWeight: 1.0, DiversityWeight: 0.0}
}

func recommendConfig() *config.RecommendConfig {
	return &config.RecommendConfig{DefaultLimit: 3, MaxLimit: 25, MediaTypes: []string{"movie", "show"}}
}
