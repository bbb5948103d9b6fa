// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package analytics

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/store"
)

// RandomSelector draws items uniformly at random from a filtered subset of
// the published snapshot. Draws are independent per call; nothing is
// excluded across calls.
//
// The rand.Rand source is not safe for concurrent use, so draws serialize
// on a mutex. The seed is configurable for reproducible deployments; a
// zero seed falls back to wall-clock entropy.
type RandomSelector struct {
	store *store.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector creates a selector over st.
func NewRandomSelector(st *store.Store, cfg *config.RandomConfig) *RandomSelector {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSelector{
		store: st,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Pick returns one item drawn uniformly from the snapshot items matching
// the media type and genre filters (either may be empty for "any";
// mediaType "tv" covers shows and episodes). Returns store.ErrEmptyDomain
// when nothing matches; an item is never fabricated.
func (r *RandomSelector) Pick(mediaType, genre string) (*store.MediaItem, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return nil, err
	}

	ids := snap.FilteredIDs(mediaType, genre)
	if len(ids) == 0 {
		return nil, store.ErrEmptyDomain
	}

	r.mu.Lock()
	id := ids[r.rng.Intn(len(ids))]
	r.mu.Unlock()

	return snap.Item(id)
}
