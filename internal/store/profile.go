// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package store

import "time"

// UserWatchProfile is the per-user aggregate of viewing activity within one
// refresh window. Profiles are rebuilt fully each cycle from raw watch
// events; there is no incremental merge between cycles, which avoids drift
// when upstream history is edited or deleted.
type UserWatchProfile struct {
	UserID       int
	Username     string
	FriendlyName string

	// TotalDurationSeconds is the sum of all watched durations in the window.
	TotalDurationSeconds int64

	// GenreDurationSeconds accumulates watched duration per lowercased genre,
	// resolved through the watched item's metadata in the same snapshot.
	GenreDurationSeconds map[string]int64

	// TypeCounts accumulates play counts per media type.
	TypeCounts map[string]int

	// WatchedKeys holds every item identifier the user has watched, including
	// parent and grandparent keys so an episode play marks its season and
	// show as watched too.
	WatchedKeys map[string]struct{}

	// LastActivity is the latest watched timestamp in the window.
	LastActivity time.Time

	// PlayCount is the total number of watch events in the window.
	PlayCount int
}

// NewUserWatchProfile returns an empty profile for the given user.
func NewUserWatchProfile(userID int, username, friendlyName string) *UserWatchProfile {
	return &UserWatchProfile{
		UserID:               userID,
		Username:             username,
		FriendlyName:         friendlyName,
		GenreDurationSeconds: make(map[string]int64),
		TypeCounts:           make(map[string]int),
		WatchedKeys:          make(map[string]struct{}),
	}
}

// AddEvent folds one watch event into the profile. genres carries the
// lowercased genre tags of the watched item (or its show for episodes);
// it may be empty when the item is unknown to the snapshot.
func (p *UserWatchProfile) AddEvent(ev *WatchEvent, genres []string) {
	p.PlayCount++
	p.TotalDurationSeconds += int64(ev.DurationSeconds)

	if ev.MediaType != "" {
		p.TypeCounts[ev.MediaType]++
	}

	for _, g := range genres {
		p.GenreDurationSeconds[g] += int64(ev.DurationSeconds)
	}

	if ev.RatingKey != "" {
		p.WatchedKeys[ev.RatingKey] = struct{}{}
	}
	if ev.ParentRatingKey != "" {
		p.WatchedKeys[ev.ParentRatingKey] = struct{}{}
	}
	if ev.GrandparentRatingKey != "" {
		p.WatchedKeys[ev.GrandparentRatingKey] = struct{}{}
	}

	// Later timestamp wins on ties
	if ev.WatchedAt.After(p.LastActivity) {
		p.LastActivity = ev.WatchedAt
	}
}

// HasWatched reports whether the given identifier is in the user's watched
// set (directly or via a parent/grandparent key).
func (p *UserWatchProfile) HasWatched(ratingKey string) bool {
	_, ok := p.WatchedKeys[ratingKey]
	return ok
}

// GenreDiversity returns the number of distinct genres with nonzero
// accumulated duration. Zero-duration events (live sessions, instant
// stops) still create genre buckets but do not count toward diversity.
func (p *UserWatchProfile) GenreDiversity() int {
	n := 0
	for _, d := range p.GenreDurationSeconds {
		if d > 0 {
			n++
		}
	}
	return n
}
