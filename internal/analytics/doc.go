// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

// Package analytics implements the query engines that run over a published
// snapshot: top-N watcher ranking, genre-affinity recommendations, uniform
// random selection, title search, recently-added listings, and library
// statistics.
//
// Every engine is a pure function of one snapshot. An engine call grabs the
// currently published snapshot once and computes its whole answer from it,
// so results within a call are mutually consistent even while a refresh
// publishes a newer version concurrently. Nothing here is cached between
// calls; the tables are in memory and the computations are cheap relative
// to re-deriving them.
//
// All engines surface store.ErrCacheNotReady before the first successful
// refresh, and the typed outcomes store.ErrNoProfile / store.ErrEmptyDomain /
// store.ErrNotFound where they apply, so callers can map each to a specific
// response instead of a generic failure.
package analytics
