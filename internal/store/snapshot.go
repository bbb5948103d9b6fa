// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package store

import (
	"strings"
	"time"
)

// Snapshot is an immutable, versioned bundle of library items, secondary
// indexes, and user watch profiles published by one refresh cycle.
//
// Snapshots must only be created through a SnapshotBuilder, which derives
// the genre and media-type indexes from the item set so that every indexed
// identifier is guaranteed to exist in the item mapping.
type Snapshot struct {
	version   int64
	fetchedAt time.Time

	items      map[string]*MediaItem
	genreIndex map[string][]string // lowercased genre -> rating keys
	typeIndex  map[string][]string // media type -> rating keys

	profiles      map[int]*UserWatchProfile
	usersByName   map[string]int // lowercased username/friendly name -> user ID
	watcherCounts map[string]int // rating key -> distinct watchers
}

// Version returns the snapshot's monotonic sequence number.
func (s *Snapshot) Version() int64 { return s.version }

// FetchedAt returns the time the snapshot's upstream fetch completed.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Age returns how old the snapshot is.
func (s *Snapshot) Age() time.Duration { return time.Since(s.fetchedAt) }

// ItemCount returns the number of media items in the snapshot.
func (s *Snapshot) ItemCount() int { return len(s.items) }

// ProfileCount returns the number of user watch profiles in the snapshot.
func (s *Snapshot) ProfileCount() int { return len(s.profiles) }

// Item performs a point lookup by rating key.
func (s *Snapshot) Item(ratingKey string) (*MediaItem, error) {
	item, ok := s.items[ratingKey]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

// Items returns the full item mapping. The map must not be mutated.
func (s *Snapshot) Items() map[string]*MediaItem { return s.items }

// Genres returns all indexed genre tags.
func (s *Snapshot) Genres() []string {
	genres := make([]string, 0, len(s.genreIndex))
	for g := range s.genreIndex {
		genres = append(genres, g)
	}
	return genres
}

// FilteredIDs returns the identifiers matching the given media type and
// genre with intersection semantics; an empty filter value means "all".
// The pseudo type "tv" expands to shows and episodes. Filters are matched
// case-insensitively. The returned slice is freshly allocated and safe for
// the caller to mutate.
func (s *Snapshot) FilteredIDs(mediaType, genre string) []string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	genre = strings.ToLower(strings.TrimSpace(genre))

	var typeIDs []string
	switch mediaType {
	case "":
		// all items
	case MediaTypeTV:
		typeIDs = append(typeIDs, s.typeIndex[MediaTypeShow]...)
		typeIDs = append(typeIDs, s.typeIndex[MediaTypeEpisode]...)
	default:
		typeIDs = s.typeIndex[mediaType]
	}

	if genre == "" {
		if mediaType == "" {
			all := make([]string, 0, len(s.items))
			for id := range s.items {
				all = append(all, id)
			}
			return all
		}
		out := make([]string, len(typeIDs))
		copy(out, typeIDs)
		return out
	}

	genreIDs := s.genreIndex[genre]
	if mediaType == "" {
		out := make([]string, len(genreIDs))
		copy(out, genreIDs)
		return out
	}

	// Intersection: iterate the smaller side against a set of the larger
	inType := make(map[string]struct{}, len(typeIDs))
	for _, id := range typeIDs {
		inType[id] = struct{}{}
	}
	out := make([]string, 0, len(genreIDs))
	for _, id := range genreIDs {
		if _, ok := inType[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Profile returns the watch profile for a user ID.
func (s *Snapshot) Profile(userID int) (*UserWatchProfile, bool) {
	p, ok := s.profiles[userID]
	return p, ok
}

// ProfileByName resolves a username or friendly name (case-insensitive)
// to a watch profile.
func (s *Snapshot) ProfileByName(name string) (*UserWatchProfile, bool) {
	id, ok := s.usersByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return s.Profile(id)
}

// Profiles returns the full profile table. The map must not be mutated.
func (s *Snapshot) Profiles() map[int]*UserWatchProfile { return s.profiles }

// WatcherCount returns how many distinct users watched the given item.
func (s *Snapshot) WatcherCount(ratingKey string) int {
	return s.watcherCounts[ratingKey]
}

// SnapshotBuilder accumulates items and profiles for one refresh cycle and
// assembles them into an immutable Snapshot. Not safe for concurrent use;
// a refresh cycle owns its builder exclusively.
type SnapshotBuilder struct {
	items      map[string]*MediaItem
	profiles   map[int]*UserWatchProfile
	identities map[int]userIdentity
}

// userIdentity is the authoritative name pair from the Tautulli users
// table, overriding whatever names individual history records carry.
type userIdentity struct {
	username     string
	friendlyName string
}

// NewSnapshotBuilder returns an empty builder.
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{
		items:      make(map[string]*MediaItem),
		profiles:   make(map[int]*UserWatchProfile),
		identities: make(map[int]userIdentity),
	}
}

// SetUserIdentity records the authoritative username and friendly name for
// a user. Identities never create a profile on their own: profiles exist
// only for users with watch activity in the window.
func (b *SnapshotBuilder) SetUserIdentity(userID int, username, friendlyName string) {
	b.identities[userID] = userIdentity{username: username, friendlyName: friendlyName}
}

// AddItem registers one media item. A later item with the same rating key
// replaces the earlier one.
func (b *SnapshotBuilder) AddItem(item *MediaItem) {
	b.items[item.RatingKey] = item
}

// Item returns a previously added item, or nil.
func (b *SnapshotBuilder) Item(ratingKey string) *MediaItem {
	return b.items[ratingKey]
}

// ItemCount returns the number of items added so far.
func (b *SnapshotBuilder) ItemCount() int { return len(b.items) }

// AddEvent folds one watch event into the owning user's profile, creating
// the profile on first sight. Genre attribution resolves the watched item
// (or, for episodes, its show) against the items added so far, so library
// items must be added before history events.
func (b *SnapshotBuilder) AddEvent(ev *WatchEvent) {
	p, ok := b.profiles[ev.UserID]
	if !ok {
		username, friendly := ev.Username, ev.FriendlyName
		if id, known := b.identities[ev.UserID]; known {
			if id.username != "" {
				username = id.username
			}
			if id.friendlyName != "" {
				friendly = id.friendlyName
			}
		}
		p = NewUserWatchProfile(ev.UserID, username, friendly)
		b.profiles[ev.UserID] = p
	}

	p.AddEvent(ev, b.eventGenres(ev))
}

// eventGenres resolves the genre tags for a watch event: the item itself
// first, then its grandparent (show) and parent, since episodes usually
// carry no genres of their own.
func (b *SnapshotBuilder) eventGenres(ev *WatchEvent) []string {
	for _, key := range []string{ev.RatingKey, ev.GrandparentRatingKey, ev.ParentRatingKey} {
		if key == "" {
			continue
		}
		if item := b.items[key]; item != nil && len(item.Genres) > 0 {
			return item.Genres
		}
	}
	return nil
}

// Build assembles the immutable snapshot, deriving the genre and media-type
// indexes from the item set. Index-completeness holds by construction:
// indexes are only ever derived from items present in the mapping.
func (b *SnapshotBuilder) Build(version int64, fetchedAt time.Time) *Snapshot {
	genreIndex := make(map[string][]string)
	typeIndex := make(map[string][]string)

	for id, item := range b.items {
		typeIndex[item.MediaType] = append(typeIndex[item.MediaType], id)
		for _, g := range item.Genres {
			genreIndex[g] = append(genreIndex[g], id)
		}
	}

	usersByName := make(map[string]int, len(b.profiles)*2)
	watcherCounts := make(map[string]int)
	for id, p := range b.profiles {
		if p.Username != "" {
			usersByName[strings.ToLower(p.Username)] = id
		}
		if p.FriendlyName != "" {
			usersByName[strings.ToLower(p.FriendlyName)] = id
		}
		for key := range p.WatchedKeys {
			watcherCounts[key]++
		}
	}

	return &Snapshot{
		version:       version,
		fetchedAt:     fetchedAt,
		items:         b.items,
		genreIndex:    genreIndex,
		typeIndex:     typeIndex,
		profiles:      b.profiles,
		usersByName:   usersByName,
		watcherCounts: watcherCounts,
	}
}
