// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package analytics

import (
	"sort"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/store"
)

// RankedUser is one row of the top-N watcher ranking.
type RankedUser struct {
	UserID               int     `json:"user_id"`
	Username             string  `json:"username"`
	FriendlyName         string  `json:"friendly_name,omitempty"`
	Metric               float64 `json:"metric"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	GenreCount           int     `json:"genre_count"`
	PlayCount            int     `json:"play_count"`
}

// Ranker computes top-N watcher orderings over the published profiles.
//
// The metric is a configured weighted combination of total watched duration
// and genre diversity (distinct genres with nonzero accumulated duration).
// The default weighting is pure duration. Ordering is deterministic:
// metric descending, then user ID ascending on ties.
type Ranker struct {
	store *store.Store
	cfg   *config.RankingConfig
}

// NewRanker creates a ranking engine over st.
func NewRanker(st *store.Store, cfg *config.RankingConfig) *Ranker {
	return &Ranker{store: st, cfg: cfg}
}

// TopN returns up to n ranked users. Only users with nonzero activity in
// the current snapshot's history window appear; the result is never padded.
// n <= 0 selects the configured default limit. Recomputed on every call
// from the published snapshot.
func (r *Ranker) TopN(n int) ([]RankedUser, error) {
	snap, err := r.store.Snapshot()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = r.cfg.DefaultLimit
	}

	ranked := make([]RankedUser, 0, snap.ProfileCount())
	for id, p := range snap.Profiles() {
		if p.PlayCount == 0 {
			continue
		}
		diversity := p.GenreDiversity()
		metric := r.cfg.DurationWeight*float64(p.TotalDurationSeconds) +
			r.cfg.DiversityWeight*float64(diversity)
		if metric <= 0 {
			continue
		}
		ranked = append(ranked, RankedUser{
			UserID:               id,
			Username:             p.Username,
			FriendlyName:         p.FriendlyName,
			Metric:               metric,
			TotalDurationSeconds: p.TotalDurationSeconds,
			GenreCount:           diversity,
			PlayCount:            p.PlayCount,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Metric != ranked[j].Metric {
			return ranked[i].Metric > ranked[j].Metric
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
