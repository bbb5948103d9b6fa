// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package store

import "errors"

var (
	// ErrCacheNotReady is returned by query operations before the first
	// successful refresh has published a snapshot.
	ErrCacheNotReady = errors.New("cache not ready: no snapshot published yet")

	// ErrNotFound is returned when an item identifier is absent from the
	// published snapshot.
	ErrNotFound = errors.New("media item not found")

	// ErrEmptyDomain is returned by random selection when no items match
	// the requested filter.
	ErrEmptyDomain = errors.New("no items match the requested filter")

	// ErrNoProfile is returned when a recommendation is requested for a
	// user with no aggregated watch activity in the current snapshot.
	ErrNoProfile = errors.New("user has no watch profile")
)
