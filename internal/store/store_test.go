// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package store

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStoreNotReady(t *testing.T) {
	s := New()

	if s.Ready() {
		t.Error("empty store must not be ready")
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrCacheNotReady) {
		t.Errorf("Snapshot() error = %v, want ErrCacheNotReady", err)
	}
	if _, err := s.Lookup("10"); !errors.Is(err, ErrCacheNotReady) {
		t.Errorf("Lookup() error = %v, want ErrCacheNotReady", err)
	}
	if _, err := s.FilteredIDs("movie", ""); !errors.Is(err, ErrCacheNotReady) {
		t.Errorf("FilteredIDs() error = %v, want ErrCacheNotReady", err)
	}
	if _, err := s.CurrentVersion(); !errors.Is(err, ErrCacheNotReady) {
		t.Errorf("CurrentVersion() error = %v, want ErrCacheNotReady", err)
	}
}

func TestStorePublishAndRead(t *testing.T) {
	s := New()
	snap := buildTestSnapshot(t)
	s.Publish(snap)

	if !s.Ready() {
		t.Fatal("store must be ready after publish")
	}

	v, err := s.CurrentVersion()
	if err != nil || v != 1 {
		t.Errorf("CurrentVersion() = %d, %v; want 1", v, err)
	}

	item, err := s.Lookup("10")
	if err != nil || item.Title != "Heat Wave" {
		t.Errorf("Lookup(10) = %v, %v", item, err)
	}
}

func TestStoreVersionMonotonic(t *testing.T) {
	s := New()

	b1 := NewSnapshotBuilder()
	b1.AddItem(&MediaItem{RatingKey: "1", MediaType: MediaTypeMovie, Title: "One"})
	s.Publish(b1.Build(1, time.Unix(100, 0)))

	b2 := NewSnapshotBuilder()
	b2.AddItem(&MediaItem{RatingKey: "2", MediaType: MediaTypeMovie, Title: "Two"})
	s.Publish(b2.Build(2, time.Unix(200, 0)))

	v, err := s.CurrentVersion()
	if err != nil || v != 2 {
		t.Fatalf("CurrentVersion() = %d, %v; want 2", v, err)
	}

	// The old snapshot's contents are fully replaced
	if _, err := s.Lookup("1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(1) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Lookup("2"); err != nil {
		t.Errorf("Lookup(2) error = %v", err)
	}
}

func TestStoreConcurrentReadsDuringPublish(t *testing.T) {
	s := New()
	s.Publish(buildTestSnapshot(t))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers continuously observe complete snapshots
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := s.Snapshot()
				if err != nil {
					t.Error("reader observed missing snapshot")
					return
				}
				// Every indexed id must resolve in the same snapshot
				for _, id := range snap.FilteredIDs("", "drama") {
					if _, err := snap.Item(id); err != nil {
						t.Errorf("indexed id %q missing from its own snapshot", id)
						return
					}
				}
			}
		}()
	}

	// Writer republishes new versions concurrently
	for v := int64(2); v <= 50; v++ {
		b := NewSnapshotBuilder()
		b.AddItem(&MediaItem{RatingKey: "d1", MediaType: MediaTypeMovie, Title: "Drama", Genres: []string{"drama"}})
		s.Publish(b.Build(v, time.Now()))
	}

	close(stop)
	wg.Wait()
}
