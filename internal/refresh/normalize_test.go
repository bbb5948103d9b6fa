// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package refresh

import (
	"errors"
	"reflect"
	"testing"
	"time"

	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
)

func TestNormalizeGenres(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, nil},
		{"lowercases", []string{"Sci-Fi", "DRAMA"}, []string{"sci-fi", "drama"}},
		{"trims", []string{"  Thriller ", "Crime"}, []string{"thriller", "crime"}},
		{"dedupes preserving order", []string{"Drama", "drama", "Comedy"}, []string{"drama", "comedy"}},
		{"drops empties", []string{"", "  ", "Action"}, []string{"action"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeGenres(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeGenres(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestItemFromMetadataSkips(t *testing.T) {
	tests := []struct {
		name string
		data models.TautulliMetadataData
	}{
		{"empty data object for unknown key", models.TautulliMetadataData{}},
		{"non-library media type", models.TautulliMetadataData{RatingKey: "5", MediaType: "track", Title: "Song"}},
		{"blank title", models.TautulliMetadataData{RatingKey: "5", MediaType: "movie", Title: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := itemFromMetadata(&tt.data)
			if err != nil {
				t.Fatalf("itemFromMetadata() error = %v, want nil", err)
			}
			if item != nil {
				t.Errorf("itemFromMetadata() = %+v, want nil (skipped)", item)
			}
		})
	}
}

func TestItemFromMetadataMapping(t *testing.T) {
	data := models.TautulliMetadataData{
		RatingKey:            "21",
		GrandparentRatingKey: "20",
		MediaType:            "Episode",
		Title:                "Good News About Hell",
		GrandparentTitle:     "Severance",
		Genres:               []string{"Drama", "Thriller"},
		Duration:             3420,
		Year:                 2022,
		AddedAt:              1720000100,
	}

	item, err := itemFromMetadata(&data)
	if err != nil {
		t.Fatalf("itemFromMetadata() error = %v", err)
	}
	if item.MediaType != "episode" {
		t.Errorf("MediaType = %q, want episode (lowercased)", item.MediaType)
	}
	if !reflect.DeepEqual(item.Genres, []string{"drama", "thriller"}) {
		t.Errorf("Genres = %v, want [drama thriller]", item.Genres)
	}
	if item.DurationSeconds != 3420 {
		t.Errorf("DurationSeconds = %d, want 3420", item.DurationSeconds)
	}
	if want := time.Unix(1720000100, 0).UTC(); !item.AddedAt.Equal(want) {
		t.Errorf("AddedAt = %v, want %v", item.AddedAt, want)
	}
}

func TestEventFromHistoryRecordErrors(t *testing.T) {
	tests := []struct {
		name      string
		rec       models.TautulliHistoryRecord
		wantField string
	}{
		{
			name:      "missing user id",
			rec:       models.TautulliHistoryRecord{RatingKey: intPtr(10), Date: 1720000000},
			wantField: "user_id",
		},
		{
			name:      "missing rating key",
			rec:       models.TautulliHistoryRecord{UserID: intPtr(1), Date: 1720000000},
			wantField: "rating_key",
		},
		{
			name:      "missing timestamp",
			rec:       models.TautulliHistoryRecord{UserID: intPtr(1), RatingKey: intPtr(10)},
			wantField: "date",
		},
		{
			name:      "negative timestamp",
			rec:       models.TautulliHistoryRecord{UserID: intPtr(1), RatingKey: intPtr(10), Date: -5},
			wantField: "date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventFromHistoryRecord(&tt.rec)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("eventFromHistoryRecord() error = %v, want *ParseError", err)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("ParseError.Field = %q, want %q", parseErr.Field, tt.wantField)
			}
		})
	}
}

func TestEventFromHistoryRecordFallbacks(t *testing.T) {
	// Date absent: Started stands in. Duration null: live session, maps to 0.
	rec := models.TautulliHistoryRecord{
		UserID:    intPtr(7),
		User:      "carol",
		RatingKey: intPtr(30),
		MediaType: "Movie",
		Started:   1720500000,
	}

	ev, err := eventFromHistoryRecord(&rec)
	if err != nil {
		t.Fatalf("eventFromHistoryRecord() error = %v", err)
	}
	if want := time.Unix(1720500000, 0).UTC(); !ev.WatchedAt.Equal(want) {
		t.Errorf("WatchedAt = %v, want %v (Started fallback)", ev.WatchedAt, want)
	}
	if ev.DurationSeconds != 0 {
		t.Errorf("DurationSeconds = %d, want 0 for null duration", ev.DurationSeconds)
	}
	if ev.RatingKey != "30" {
		t.Errorf("RatingKey = %q, want 30", ev.RatingKey)
	}
	if ev.MediaType != "movie" {
		t.Errorf("MediaType = %q, want movie", ev.MediaType)
	}
}
