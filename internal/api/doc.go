// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

// Package api provides the HTTP surface over the snapshot store and the
// analytics engines, routed with Chi.
//
// Every query response carries X-Snapshot-Version and X-Snapshot-Stale
// headers so clients can detect when answers come from an aging snapshot.
// Domain outcomes map to specific statuses: a not-yet-ready cache is 503
// with Retry-After, unknown items and empty filter domains are 404, and a
// user without a watch profile is 404 with the NO_PROFILE code so callers
// can fall back to random selection.
package api
