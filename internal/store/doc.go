// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

// Package store holds the in-memory media cache: immutable, versioned
// snapshots of library items, their genre and media-type indexes, and the
// per-user watch profiles aggregated from playback history.
//
// # Snapshot Model
//
// A Snapshot is built fully off to the side by the refresh pipeline and then
// published with a single atomic pointer swap. Readers always observe a
// complete, self-consistent snapshot and never need locks; snapshots are
// never mutated after publication, only replaced wholesale.
//
// Invariant: every item identifier appearing in a genre or media-type index
// also exists in the item mapping. The SnapshotBuilder enforces this by
// construction - indexes are derived from the item set, never maintained
// independently.
//
// # Query Surface
//
//	snap, err := store.Snapshot()        // ErrCacheNotReady before first publish
//	item, err := snap.Item("1001")       // ErrNotFound for unknown keys
//	ids := snap.FilteredIDs("movie", "action")
//	profile, ok := snap.Profile(42)
//
// FilteredIDs applies intersection semantics when both a media type and a
// genre are given; an empty filter means "all". The pseudo media type "tv"
// expands to shows and episodes.
//
// # Consistency
//
// Profiles and items in one snapshot derive from the same upstream fetch and
// share the snapshot's version and fetch timestamp, so rankings and
// recommendations computed against a single snapshot are mutually consistent.
package store
