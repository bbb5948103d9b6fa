// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package analytics

import (
	"sort"
	"strings"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/store"
)

// Recommendation is one scored candidate.
type Recommendation struct {
	Item  *store.MediaItem `json:"item"`
	Score float64          `json:"score"`
}

// Recommender scores unwatched library items against a user's genre
// affinity.
//
// For each candidate item the score is the sum, over the item's genres, of
// the user's accumulated-duration share for that genre (genre duration
// divided by total duration). Items the user has already watched are
// excluded, as are items scoring zero: no genre overlap means no
// recommendation, never a tie-break guess. Ties are broken by the most
// recently added item first.
type Recommender struct {
	store *store.Store
	cfg   *config.RecommendConfig
}

// NewRecommender creates a recommendation engine over st.
func NewRecommender(st *store.Store, cfg *config.RecommendConfig) *Recommender {
	return &Recommender{store: st, cfg: cfg}
}

// Recommend returns up to k scored items for the given user ID. Returns
// store.ErrNoProfile when the user has no aggregated activity in the
// current snapshot, so the caller can pick its own fallback. k <= 0
// selects the configured default; k is capped at the configured maximum.
func (r *Recommender) Recommend(userID int, k int) ([]Recommendation, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return nil, err
	}
	profile, ok := snap.Profile(userID)
	if !ok {
		return nil, store.ErrNoProfile
	}
	return r.recommendOn(snap, profile, k), nil
}

// RecommendByName resolves a username or friendly name (case-insensitive)
// and recommends against the same snapshot the lookup used.
func (r *Recommender) RecommendByName(name string, k int) ([]Recommendation, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return nil, err
	}
	profile, ok := snap.ProfileByName(name)
	if !ok {
		return nil, store.ErrNoProfile
	}
	return r.recommendOn(snap, profile, k), nil
}

func (r *Recommender) recommendOn(snap *store.Snapshot, profile *store.UserWatchProfile, k int) []Recommendation {
	if k <= 0 {
		k = r.cfg.DefaultLimit
	}
	if r.cfg.MaxLimit > 0 && k > r.cfg.MaxLimit {
		k = r.cfg.MaxLimit
	}
	if profile.TotalDurationSeconds <= 0 {
		return nil // no duration signal to normalize against
	}

	total := float64(profile.TotalDurationSeconds)
	var scored []Recommendation
	for _, item := range snap.Items() {
		if !r.candidateType(item.MediaType) {
			continue
		}
		if watchedAny(profile, item) {
			continue
		}

		var score float64
		for _, g := range item.Genres {
			score += float64(profile.GenreDurationSeconds[g]) / total
		}
		if score <= 0 {
			continue
		}
		scored = append(scored, Recommendation{Item: item, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Item.AddedAt.Equal(scored[j].Item.AddedAt) {
			return scored[i].Item.AddedAt.After(scored[j].Item.AddedAt)
		}
		return scored[i].Item.RatingKey < scored[j].Item.RatingKey
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// candidateType reports whether a media type is eligible for
// recommendation per configuration.
func (r *Recommender) candidateType(mediaType string) bool {
	if len(r.cfg.MediaTypes) == 0 {
		return true
	}
	for _, t := range r.cfg.MediaTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

// watchedAny reports whether the item or any of its ancestors is in the
// user's watched set. The watched set already contains parent and
// grandparent keys from every event, so an episode play blocks its show.
func watchedAny(profile *store.UserWatchProfile, item *store.MediaItem) bool {
	if profile.HasWatched(item.RatingKey) {
		return true
	}
	if item.ParentRatingKey != "" && profile.HasWatched(item.ParentRatingKey) {
		return true
	}
	if item.GrandparentRatingKey != "" && profile.HasWatched(item.GrandparentRatingKey) {
		return true
	}
	return false
}
