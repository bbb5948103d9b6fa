// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/plexwatch/internal/store"
)

// cacheNotReadyRetryAfter is the Retry-After hint sent while the first
// refresh is still in flight.
const cacheNotReadyRetryAfter = 5 * time.Second

// writeDomainError maps the store's typed outcomes onto HTTP statuses.
// Anything unrecognized is a 500; domain outcomes are never reported as
// generic failures.
func writeDomainError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrCacheNotReady):
		rw.ServiceUnavailable(ErrCodeCacheNotReady, "cache not ready, first refresh still in progress", cacheNotReadyRetryAfter)
	case errors.Is(err, store.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "item not found")
	case errors.Is(err, store.ErrEmptyDomain):
		rw.Error(http.StatusNotFound, ErrCodeEmptyDomain, "no items match the requested filter")
	case errors.Is(err, store.ErrNoProfile):
		rw.Error(http.StatusNotFound, ErrCodeNoProfile, "user has no watch profile")
	default:
		rw.InternalError("internal error")
	}
}
