// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

// Package tautulli provides data models for Tautulli API responses.
//
// This package contains Go struct definitions for the Tautulli API v2
// endpoints Plexwatch consumes during a cache refresh. Each struct is
// designed to match the Tautulli response format with appropriate JSON
// tags and field documentation.
//
// # Response Envelope
//
// All Tautulli API responses follow a standard envelope format:
//
//	{
//	    "response": {
//	        "result": "success",
//	        "message": null,
//	        "data": { ... }
//	    }
//	}
//
// Each struct in this package follows this pattern with a Response wrapper
// and Data payload.
//
// # Endpoints Covered
//
// Library inventory:
//   - TautulliLibraries: Library sections (get_libraries)
//   - TautulliLibraryMediaInfo: Paginated library items (get_library_media_info)
//
// Media metadata:
//   - TautulliMetadata: Per-item metadata including genres (get_metadata)
//
// Playback history:
//   - TautulliHistory: Paginated playback events (get_history)
//
// Users and server:
//   - TautulliUsersTable: Known users (get_users_table)
//   - TautulliServerInfo: Plex server details (get_server_info)
//
// # Field Naming and Types
//
// JSON fields use snake_case to match the Tautulli API. Nullable fields use
// pointer types so null can be distinguished from the zero value; Tautulli
// returns null for several history fields when a session ended abnormally.
// Rating keys are strings in metadata responses but integers in history
// responses; the structs mirror the wire format and callers normalize.
//
// # Version Compatibility
//
// These models are compatible with Tautulli API v2. Field additions in
// Tautulli updates are handled gracefully - unknown fields are ignored
// by Go's JSON decoder.
package tautulli
