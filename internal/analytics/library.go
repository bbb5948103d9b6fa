// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package analytics

import (
	"sort"
	"strings"

	"github.com/tomtom215/plexwatch/internal/store"
)

// LibraryStats is a rollup of the current snapshot's contents.
type LibraryStats struct {
	SnapshotVersion int64          `json:"snapshot_version"`
	TotalItems      int            `json:"total_items"`
	TotalProfiles   int            `json:"total_profiles"`
	ItemsByType     map[string]int `json:"items_by_type"`
	ItemsByGenre    map[string]int `json:"items_by_genre"`
	Genres          []string       `json:"genres"`
}

// Library answers browse-style queries: title search, recently-added
// listings, and library statistics.
type Library struct {
	store *store.Store
}

// NewLibrary creates a browse engine over st.
func NewLibrary(st *store.Store) *Library {
	return &Library{store: st}
}

// Search returns up to limit items whose title contains the query,
// case-insensitive. For episodes the show and season titles are searched
// too. Results are ordered newest-added first, then by title for
// determinism. An empty query matches nothing.
func (l *Library) Search(query string, limit int) ([]*store.MediaItem, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	var matches []*store.MediaItem
	for _, item := range snap.Items() {
		if strings.Contains(strings.ToLower(item.Title), query) ||
			strings.Contains(strings.ToLower(item.ParentTitle), query) ||
			strings.Contains(strings.ToLower(item.GrandparentTitle), query) {
			matches = append(matches, item)
		}
	}

	sortNewestFirst(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// RecentlyAdded returns up to limit items ordered newest-added first,
// optionally restricted to a media type ("tv" covers shows and episodes).
func (l *Library) RecentlyAdded(limit int, mediaType string) ([]*store.MediaItem, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}

	ids := snap.FilteredIDs(mediaType, "")
	items := make([]*store.MediaItem, 0, len(ids))
	for _, id := range ids {
		if item, err := snap.Item(id); err == nil {
			items = append(items, item)
		}
	}

	sortNewestFirst(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Stats computes per-type and per-genre item counts for the snapshot.
func (l *Library) Stats() (*LibraryStats, error) {
	snap, err := l.store.Snapshot()
	if err != nil {
		return nil, err
	}

	stats := &LibraryStats{
		SnapshotVersion: snap.Version(),
		TotalItems:      snap.ItemCount(),
		TotalProfiles:   snap.ProfileCount(),
		ItemsByType:     make(map[string]int),
		ItemsByGenre:    make(map[string]int),
		Genres:          snap.Genres(),
	}
	for _, item := range snap.Items() {
		stats.ItemsByType[item.MediaType]++
		for _, g := range item.Genres {
			stats.ItemsByGenre[g]++
		}
	}
	return stats, nil
}

func sortNewestFirst(items []*store.MediaItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.After(items[j].AddedAt)
		}
		return items[i].Title < items[j].Title
	})
}
