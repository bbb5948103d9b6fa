// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

// Package websocket pushes cache lifecycle events to connected browser
// clients: a snapshot_published message after every successful refresh, a
// refresh_failed message when a cycle fails and the served snapshot goes
// stale, plus application-level ping/pong.
//
// The Hub owns the client set and fans broadcasts out over buffered
// per-client channels; a client that cannot keep up is dropped rather than
// allowed to block the hub. Broadcast and shutdown iterate clients in ID
// order so delivery order is reproducible under test.
package websocket
