// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"
)

// registerTestClient attaches a connection-less client directly to the hub.
// Broadcast delivery only touches the send channel, so no websocket
// connection is needed to observe hub behavior.
func registerTestClient(t *testing.T, hub *Hub, buffer int) *Client {
	t.Helper()
	client := &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message, buffer),
	}
	select {
	case hub.Register <- client:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not accept client registration")
	}
	waitForClients(t, hub, func(n int) bool { return n > 0 })
	return client
}

func waitForClients(t *testing.T, hub *Hub, ok func(int) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok(hub.ClientCount()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached expected state, have %d", hub.ClientCount())
}

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Serve(ctx) }()
	return hub, cancel, errCh
}

func TestHubBroadcastSnapshotPublished(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	client := registerTestClient(t, hub, 8)
	hub.BroadcastSnapshotPublished(7, 120, 4)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeSnapshotPublished {
			t.Fatalf("message type = %q, want %q", msg.Type, MessageTypeSnapshotPublished)
		}
		data, ok := msg.Data.(SnapshotPublishedData)
		if !ok {
			t.Fatalf("message data type = %T, want SnapshotPublishedData", msg.Data)
		}
		if data.Version != 7 || data.ItemCount != 120 || data.ProfileCount != 4 {
			t.Errorf("payload = %+v, want version 7, 120 items, 4 profiles", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestHubBroadcastRefreshFailed(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	client := registerTestClient(t, hub, 8)
	hub.BroadcastRefreshFailed(7, "tautulli unreachable", 3)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeRefreshFailed {
			t.Fatalf("message type = %q, want %q", msg.Type, MessageTypeRefreshFailed)
		}
		data, ok := msg.Data.(RefreshFailedData)
		if !ok {
			t.Fatalf("message data type = %T, want RefreshFailedData", msg.Data)
		}
		if data.Version != 7 || data.Error != "tautulli unreachable" || data.ConsecutiveFailures != 3 {
			t.Errorf("payload = %+v, want version 7, error message, 3 failures", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	slow := registerTestClient(t, hub, 1)
	slow.send <- Message{Type: MessageTypePong} // fill the buffer

	hub.BroadcastJSON(MessageTypeSnapshotPublished, nil)
	waitForClients(t, hub, func(n int) bool { return n == 0 })

	// Hub closed the channel when dropping the client
	<-slow.send
	if _, open := <-slow.send; open {
		t.Error("slow client send channel still open after drop")
	}
}

func TestHubUnregister(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	client := registerTestClient(t, hub, 8)
	hub.Unregister <- client
	waitForClients(t, hub, func(n int) bool { return n == 0 })
}

func TestHubServeShutdownClosesClients(t *testing.T) {
	hub, cancel, errCh := startHub(t)
	client := registerTestClient(t, hub, 8)

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if _, open := <-client.send; open {
		t.Error("client send channel still open after hub shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown, want 0", hub.ClientCount())
	}
}

func TestHubBroadcastWithNoClients(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	// Must not panic or block
	hub.BroadcastSnapshotPublished(1, 0, 0)
	hub.BroadcastRefreshFailed(1, "upstream unreachable", 1)
}
