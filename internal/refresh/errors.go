// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package refresh

import "fmt"

// FetchError wraps a network, timeout, or non-success upstream response
// encountered during a refresh cycle. A FetchError aborts the cycle and
// leaves the previously published snapshot live.
type FetchError struct {
	Op  string // upstream operation, e.g. "get_libraries"
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a malformed upstream payload: a required field missing
// or a value that cannot be normalized. Handled like a fetch error for the
// cycle - never silently defaulted.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Field, e.Reason)
}
