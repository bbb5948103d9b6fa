// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/plexwatch/internal/config"
)

func testClientConfig(serverURL string) *config.TautulliConfig {
	return &config.TautulliConfig{
		URL:            serverURL,
		APIKey:         "test-key",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: 10 * time.Millisecond,
	}
}

func TestReadBodyForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    io.Reader
		expected string
	}{
		{
			name:     "normal body content",
			input:    strings.NewReader("error message body"),
			expected: "error message body",
		},
		{
			name:     "empty body",
			input:    strings.NewReader(""),
			expected: "",
		},
		{
			name:     "failing reader",
			input:    &failingReader{},
			expected: "(failed to read response body)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := readBodyForError(tt.input)
			if string(result) != tt.expected {
				t.Errorf("readBodyForError() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}

// failingReader is a reader that always fails
type failingReader struct{}

func (f *failingReader) Read(_ []byte) (int, error) {
	return 0, errors.New("simulated read failure")
}

func TestDoRequestWithRateLimit(t *testing.T) {
	t.Run("successful request on first try", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("success"))
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		resp, err := client.doRequestWithRateLimit(context.Background(), server.URL+"/test")
		if err != nil {
			t.Fatalf("doRequestWithRateLimit() error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("rate limit with retry success", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		resp, err := client.doRequestWithRateLimit(context.Background(), server.URL+"/test")
		if err != nil {
			t.Fatalf("doRequestWithRateLimit() error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if got := atomic.LoadInt32(&calls); got != 2 {
			t.Errorf("server calls = %d, want 2", got)
		}
	})

	t.Run("rate limit exhausts retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		_, err := client.doRequestWithRateLimit(context.Background(), server.URL+"/test")
		if err == nil {
			t.Fatal("expected error after exhausting retries")
		}
		if !strings.Contains(err.Error(), "rate limit exceeded") {
			t.Errorf("error = %v, want rate limit exceeded", err)
		}
	})

	t.Run("context cancellation during backoff", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		cfg := testClientConfig(server.URL)
		cfg.RetryBaseDelay = 10 * time.Second
		client := NewClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.doRequestWithRateLimit(ctx, server.URL+"/test")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestGetLibraries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("cmd"); got != "get_libraries" {
			t.Errorf("cmd = %q, want get_libraries", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Errorf("apikey = %q, want test-key", got)
		}
		w.Write([]byte(`{
			"response": {
				"result": "success",
				"data": [
					{"section_id": 1, "section_name": "Movies", "section_type": "movie", "count": 500},
					{"section_id": 2, "section_name": "TV Shows", "section_type": "show", "count": 80}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	libs, err := client.GetLibraries(context.Background())
	if err != nil {
		t.Fatalf("GetLibraries() error = %v", err)
	}
	if len(libs.Response.Data) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(libs.Response.Data))
	}
	if libs.Response.Data[0].SectionType != "movie" {
		t.Errorf("section type = %q, want movie", libs.Response.Data[0].SectionType)
	}
}

func TestGetMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("rating_key"); got != "1001" {
			t.Errorf("rating_key = %q, want 1001", got)
		}
		w.Write([]byte(`{
			"response": {
				"result": "success",
				"data": {
					"rating_key": "1001",
					"media_type": "movie",
					"title": "Some Movie",
					"genres": ["Action", "Thriller"]
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	meta, err := client.GetMetadata(context.Background(), "1001")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.Response.Data.Title != "Some Movie" {
		t.Errorf("title = %q, want Some Movie", meta.Response.Data.Title)
	}
	if len(meta.Response.Data.Genres) != 2 {
		t.Errorf("genres = %v, want 2 entries", meta.Response.Data.Genres)
	}
}

func TestGetHistorySince(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("cmd"); got != "get_history" {
			t.Errorf("cmd = %q, want get_history", got)
		}
		if got := q.Get("after"); got != "2026-08-01" {
			t.Errorf("after = %q, want 2026-08-01", got)
		}
		if got := q.Get("grouping"); got != "0" {
			t.Errorf("grouping = %q, want 0", got)
		}
		w.Write([]byte(`{
			"response": {
				"result": "success",
				"data": {
					"recordsFiltered": 1,
					"recordsTotal": 1,
					"data": [
						{"user_id": 5, "user": "alice", "rating_key": 1001, "media_type": "movie", "title": "Some Movie", "duration": 3600}
					]
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	hist, err := client.GetHistorySince(context.Background(), since, 0, 1000)
	if err != nil {
		t.Fatalf("GetHistorySince() error = %v", err)
	}
	if len(hist.Response.Data.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(hist.Response.Data.Data))
	}
	rec := hist.Response.Data.Data[0]
	if rec.User != "alice" || rec.RatingKey == nil || *rec.RatingKey != 1001 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestMakeRequestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"result": "error", "message": "Invalid apikey"}}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	_, err := client.GetLibraries(context.Background())
	if err == nil {
		t.Fatal("expected error for result=error envelope")
	}
	if !strings.Contains(err.Error(), "Invalid apikey") {
		t.Errorf("error = %v, want message from envelope", err)
	}
}

func TestMakeRequestHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	_, err := client.GetServerInfo(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want status 500", err)
	}
}

func TestPing(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("cmd"); got != "arnold" {
				t.Errorf("cmd = %q, want arnold", got)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))
		if err := client.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		client := NewClient(testClientConfig("http://127.0.0.1:1"))
		if err := client.Ping(context.Background()); err == nil {
			t.Error("expected error for unreachable server")
		}
	})
}
