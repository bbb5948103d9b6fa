// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package refresh

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/logging"
	"github.com/tomtom215/plexwatch/internal/store"
	"github.com/tomtom215/plexwatch/internal/tautulli"
)

// Builder fetches the library inventory and playback history from Tautulli
// and assembles them into an immutable snapshot. A refresh cycle owns its
// Builder call exclusively; the Builder itself holds no mutable state
// between calls.
type Builder struct {
	client tautulli.Interface
	cfg    *config.RefreshConfig
}

// NewBuilder creates a snapshot builder over the given Tautulli client.
func NewBuilder(client tautulli.Interface, cfg *config.RefreshConfig) *Builder {
	return &Builder{client: client, cfg: cfg}
}

// BuildSnapshot runs one full fetch cycle: library sections, per-item
// metadata (genre tags), and the history window, and assembles the result.
// Any upstream failure aborts the cycle with a FetchError; malformed
// history payloads abort with a ParseError. The caller decides what to do
// with the previously published snapshot.
func (b *Builder) BuildSnapshot(ctx context.Context, version int64) (*store.Snapshot, error) {
	started := time.Now()

	keys, err := b.fetchLibraryKeys(ctx)
	if err != nil {
		return nil, err
	}
	logging.Debug().Int("items", len(keys)).Msg("Library inventory fetched")

	sb := store.NewSnapshotBuilder()
	if err := b.fetchMetadata(ctx, keys, sb); err != nil {
		return nil, err
	}
	logging.Debug().Int("cached", sb.ItemCount()).Int("fetched", len(keys)).Msg("Item metadata resolved")

	// User identities must be in place before history folds events into
	// profiles, since a profile takes its names at creation time
	if err := b.fetchUserIdentities(ctx, sb); err != nil {
		return nil, err
	}

	events, err := b.fetchHistory(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		sb.AddEvent(ev)
	}

	snap := sb.Build(version, time.Now().UTC())
	logging.Info().
		Int64("version", version).
		Int("items", snap.ItemCount()).
		Int("profiles", snap.ProfileCount()).
		Int("events", len(events)).
		Dur("elapsed", time.Since(started)).
		Msg("Snapshot built")
	return snap, nil
}

// fetchLibraryKeys lists active movie and show sections and pages through
// their items, returning every rating key to resolve metadata for.
func (b *Builder) fetchLibraryKeys(ctx context.Context) ([]string, error) {
	libs, err := b.client.GetLibraries(ctx)
	if err != nil {
		return nil, &FetchError{Op: "get_libraries", Err: err}
	}

	var keys []string
	for _, lib := range libs.Response.Data {
		sectionType := strings.ToLower(lib.SectionType)
		if sectionType != store.MediaTypeMovie && sectionType != store.MediaTypeShow {
			continue
		}
		if lib.IsActive == 0 {
			continue
		}

		sectionKeys, err := b.fetchSectionKeys(ctx, lib.SectionID)
		if err != nil {
			return nil, err
		}
		keys = append(keys, sectionKeys...)
	}
	return keys, nil
}

// fetchSectionKeys pages through one library section.
func (b *Builder) fetchSectionKeys(ctx context.Context, sectionID int) ([]string, error) {
	var keys []string
	for start := 0; ; {
		page, err := b.client.GetLibraryMediaInfo(ctx, sectionID, start, b.cfg.PageSize)
		if err != nil {
			return nil, &FetchError{Op: "get_library_media_info", Err: err}
		}

		rows := page.Response.Data.Data
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if row.RatingKey != "" {
				keys = append(keys, row.RatingKey)
			}
		}

		start += len(rows)
		if start >= page.Response.Data.RecordsFiltered {
			break
		}
	}
	return keys, nil
}

// fetchMetadata resolves genre-bearing metadata for every rating key using
// a bounded worker pool. The first upstream error cancels the remaining
// work and aborts the cycle; items Tautulli no longer knows about are
// skipped, not fatal.
func (b *Builder) fetchMetadata(ctx context.Context, keys []string, sb *store.SnapshotBuilder) error {
	if len(keys) == 0 {
		return nil
	}

	workers := b.cfg.MetadataConcurrency
	if workers > len(keys) {
		workers = len(keys)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				meta, err := b.client.GetMetadata(ctx, key)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					fail(&FetchError{Op: "get_metadata", Err: err})
					return
				}

				item, err := itemFromMetadata(&meta.Response.Data)
				if err != nil {
					fail(err)
					return
				}
				if item == nil {
					continue // filtered by data quality rules
				}

				mu.Lock()
				sb.AddItem(item)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, key := range keys {
		select {
		case jobs <- key:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// fetchUserIdentities pages through the Tautulli users table and records
// the authoritative username and friendly name for every known user.
// History records carry per-play name snapshots that go stale when a user
// is renamed; the users table is current.
func (b *Builder) fetchUserIdentities(ctx context.Context, sb *store.SnapshotBuilder) error {
	for start := 0; ; {
		page, err := b.client.GetUsersTable(ctx, start, b.cfg.PageSize)
		if err != nil {
			return &FetchError{Op: "get_users_table", Err: err}
		}

		rows := page.Response.Data.Data
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			sb.SetUserIdentity(row.UserID, row.Username, row.FriendlyName)
		}

		start += len(rows)
		if start >= page.Response.Data.RecordsFiltered {
			break
		}
	}
	return nil
}

// fetchHistory pages through the playback history window and normalizes
// every record. A malformed record aborts the cycle with a ParseError.
func (b *Builder) fetchHistory(ctx context.Context) ([]*store.WatchEvent, error) {
	since := time.Now().Add(-b.cfg.Lookback)

	var events []*store.WatchEvent
	for start := 0; ; {
		page, err := b.client.GetHistorySince(ctx, since, start, b.cfg.PageSize)
		if err != nil {
			return nil, &FetchError{Op: "get_history", Err: err}
		}

		records := page.Response.Data.Data
		if len(records) == 0 {
			break
		}
		for i := range records {
			ev, err := eventFromHistoryRecord(&records[i])
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}

		start += len(records)
		if start >= page.Response.Data.RecordsFiltered {
			break
		}
	}
	return events, nil
}
