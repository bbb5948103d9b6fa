// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/plexwatch/internal/analytics"
	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/websocket"
)

func newRateLimitedServer(t *testing.T, reqs int) *httptest.Server {
	t.Helper()
	st := readyStore()
	handlers := NewHandlers(
		st,
		readyRefresher(),
		&stubUpstream{},
		analytics.NewRanker(st, &config.RankingConfig{DefaultLimit: 10, DurationWeight: 1.0}),
		analytics.NewRecommender(st, &config.RecommendConfig{DefaultLimit: 3, MaxLimit: 25}),
		analytics.NewRandomSelector(st, &config.RandomConfig{Seed: 1}),
		analytics.NewLibrary(st),
		websocket.NewHub(),
	)
	cfg := &config.ServerConfig{
		RateLimitReqs:   reqs,
		RateLimitWindow: time.Minute,
	}
	srv := httptest.NewServer(NewRouter(handlers, cfg).Setup())
	t.Cleanup(srv.Close)
	return srv
}

func TestRateLimitEnforced(t *testing.T) {
	srv := newRateLimitedServer(t, 2)

	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/api/v1/status")
		if err != nil {
			t.Fatalf("GET status: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("request 3 status = %d, want 429", resp.StatusCode)
	}
}

func TestRateLimitSkipsHealthEndpoints(t *testing.T) {
	srv := newRateLimitedServer(t, 1)

	for i := 0; i < 5; i++ {
		resp, err := http.Get(srv.URL + "/healthz/live")
		if err != nil {
			t.Fatalf("GET live: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("health request %d status = %d, want 200", i+1, resp.StatusCode)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, readyStore(), readyRefresher())

	resp, err := http.Get(srv.URL + "/api/v1/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebSocketRouteUpgradeRequired(t *testing.T) {
	srv := newTestServer(t, readyStore(), readyRefresher())

	// A plain GET without upgrade headers must not panic the server
	resp, err := http.Get(srv.URL + "/api/v1/ws")
	if err != nil {
		t.Fatalf("GET ws: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for non-upgrade request", resp.StatusCode)
	}
}

// The upgrade must succeed through the full middleware chain: the
// instrumentation wrapper has to forward Hijack or gorilla refuses the
// handshake with a 500.
func TestWebSocketUpgradeThroughRouter(t *testing.T) {
	srv := newTestServer(t, readyStore(), readyRefresher())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("Dial() error = %v, handshake status = %d", err, status)
	}
	defer conn.Close()

	if err := conn.WriteJSON(websocket.Message{Type: websocket.MessageTypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != websocket.MessageTypePong {
		t.Fatalf("type = %q, want %q", msg.Type, websocket.MessageTypePong)
	}
}
