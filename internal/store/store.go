// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package store

import (
	"sync/atomic"
)

// Store holds the single published-snapshot pointer. It is the only mutable
// shared state in the query path: the pointer is replaced, never edited, so
// readers need no locks and writers need only mutual exclusion among
// themselves (enforced by the refresh coordinator's single-flight rule).
//
// Thread Safety: all methods are safe for concurrent use. Reads are
// lock-free; two reads issued after a publish observe snapshots with
// version >= that publish's version.
type Store struct {
	snap atomic.Pointer[Snapshot]
}

// New returns an empty store. Until the first Publish, Snapshot returns
// ErrCacheNotReady.
func New() *Store {
	return &Store{}
}

// Publish atomically replaces the published snapshot. Only the refresh
// coordinator may call this.
func (s *Store) Publish(snap *Snapshot) {
	s.snap.Store(snap)
}

// Snapshot returns the currently published snapshot, or ErrCacheNotReady
// before the first publish.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrCacheNotReady
	}
	return snap, nil
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.snap.Load() != nil
}

// CurrentVersion returns the published snapshot's version, or 0 with
// ErrCacheNotReady before the first publish.
func (s *Store) CurrentVersion() (int64, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return 0, err
	}
	return snap.Version(), nil
}

// Lookup performs a point lookup against the published snapshot.
func (s *Store) Lookup(ratingKey string) (*MediaItem, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Item(ratingKey)
}

// FilteredIDs returns matching identifiers from the published snapshot.
func (s *Store) FilteredIDs(mediaType, genre string) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.FilteredIDs(mediaType, genre), nil
}
