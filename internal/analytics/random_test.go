// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/store"
)

func TestRandomPickStaysInFilter(t *testing.T) {
	items := []*store.MediaItem{
		movieItem("1", "Heat", 0, "crime"),
		movieItem("2", "Arrival", time.Hour, "sci-fi"),
		movieItem("3", "Collateral", 2*time.Hour, "crime"),
	}
	st := publish(items, nil)
	sel := NewRandomSelector(st, &config.RandomConfig{Seed: 42})

	for i := 0; i < 50; i++ {
		item, err := sel.Pick("movie", "crime")
		if err != nil {
			t.Fatalf("Pick() error = %v", err)
		}
		if item.RatingKey != "1" && item.RatingKey != "3" {
			t.Fatalf("Pick(movie, crime) = item %s outside filtered set", item.RatingKey)
		}
	}
}

func TestRandomPickApproximatelyUniform(t *testing.T) {
	items := []*store.MediaItem{
		movieItem("1", "Heat", 0, "crime"),
		movieItem("2", "Arrival", time.Hour, "crime"),
		movieItem("3", "Collateral", 2*time.Hour, "crime"),
	}
	st := publish(items, nil)
	sel := NewRandomSelector(st, &config.RandomConfig{Seed: 1})

	const trials = 300
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		item, err := sel.Pick("", "")
		if err != nil {
			t.Fatalf("Pick() error = %v", err)
		}
		counts[item.RatingKey]++
	}

	if len(counts) != 3 {
		t.Fatalf("Pick() over %d trials hit %d items, want all 3", trials, len(counts))
	}
	// Expect ~100 per item; allow generous tolerance around 1/3
	for key, n := range counts {
		if n < 60 || n > 140 {
			t.Errorf("item %s drawn %d/%d times, outside uniform tolerance", key, n, trials)
		}
	}
}

func TestRandomPickEmptyDomain(t *testing.T) {
	items := []*store.MediaItem{movieItem("1", "Heat", 0, "crime")}
	st := publish(items, nil)
	sel := NewRandomSelector(st, &config.RandomConfig{Seed: 7})

	if _, err := sel.Pick("movie", "western"); !errors.Is(err, store.ErrEmptyDomain) {
		t.Fatalf("Pick(no match) error = %v, want ErrEmptyDomain", err)
	}
}

func TestRandomPickCacheNotReady(t *testing.T) {
	sel := NewRandomSelector(store.New(), &config.RandomConfig{Seed: 7})
	if _, err := sel.Pick("", ""); !errors.Is(err, store.ErrCacheNotReady) {
		t.Fatalf("Pick() on empty store error = %v, want ErrCacheNotReady", err)
	}
}
