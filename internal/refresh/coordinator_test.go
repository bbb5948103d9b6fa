// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/plexwatch/internal/store"
)

func newTestCoordinator(client *fakeClient) (*Coordinator, *store.Store) {
	cfg := testRefreshConfig()
	st := store.New()
	return NewCoordinator(NewBuilder(client, cfg), st, cfg), st
}

func TestRequestRefreshPublishes(t *testing.T) {
	client := newFixtureClient()
	coord, st := newTestCoordinator(client)

	out, err := coord.RequestRefresh(context.Background())
	if err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	}
	if out.Err != nil {
		t.Fatalf("Outcome.Err = %v", out.Err)
	}
	if out.Version != 1 {
		t.Errorf("Outcome.Version = %d, want 1", out.Version)
	}
	if out.Coalesced {
		t.Error("Outcome.Coalesced = true for the initiating caller")
	}
	if !st.Ready() {
		t.Fatal("store not ready after successful refresh")
	}
	if v, err := st.CurrentVersion(); err != nil || v != 1 {
		t.Errorf("CurrentVersion() = %d, %v, want 1", v, err)
	}
}

func TestRequestRefreshSingleFlight(t *testing.T) {
	client := newFixtureClient()
	client.gate = make(chan struct{})
	client.entered = make(chan struct{})
	coord, _ := newTestCoordinator(client)

	const waiters = 4
	outcomes := make([]Outcome, waiters)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0], _ = coord.RequestRefresh(context.Background())
	}()

	// Wait for the cycle to be in flight before piling on
	select {
	case <-client.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh cycle never started")
	}

	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], _ = coord.RequestRefresh(context.Background())
		}(i)
	}
	// Give the coalesced waiters time to attach to the in-flight cycle
	time.Sleep(50 * time.Millisecond)
	close(client.gate)
	wg.Wait()

	lib, _, _, _ := client.calls()
	if lib != 1 {
		t.Errorf("GetLibraries calls = %d, want 1 (single-flight)", lib)
	}
	for i, out := range outcomes {
		if out.Err != nil {
			t.Fatalf("outcomes[%d].Err = %v", i, out.Err)
		}
		if out.Version != 1 {
			t.Errorf("outcomes[%d].Version = %d, want 1", i, out.Version)
		}
	}
}

func TestRequestRefreshCancelDetachesWaiter(t *testing.T) {
	client := newFixtureClient()
	client.gate = make(chan struct{})
	client.entered = make(chan struct{})
	coord, st := newTestCoordinator(client)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := coord.RequestRefresh(ctx)
		errCh <- err
	}()

	select {
	case <-client.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh cycle never started")
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("RequestRefresh() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	// The detached cycle must still complete and publish
	close(client.gate)
	if err := coord.AwaitReady(context.Background()); err != nil {
		t.Fatalf("AwaitReady() after detach error = %v", err)
	}
	if v, err := st.CurrentVersion(); err != nil || v != 1 {
		t.Errorf("CurrentVersion() = %d, %v, want 1 published by detached cycle", v, err)
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	client := newFixtureClient()
	coord, st := newTestCoordinator(client)

	if _, err := coord.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("first RequestRefresh() error = %v", err)
	}

	client.mu.Lock()
	client.librariesErr = errors.New("tautulli unreachable")
	client.mu.Unlock()

	out, err := coord.RequestRefresh(context.Background())
	if err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	}
	if out.Err == nil {
		t.Fatal("Outcome.Err = nil, want fetch failure")
	}
	if out.Version != 1 {
		t.Errorf("Outcome.Version = %d, want previous version 1", out.Version)
	}
	if v, err := st.CurrentVersion(); err != nil || v != 1 {
		t.Errorf("CurrentVersion() = %d, %v, want unchanged 1", v, err)
	}

	status := coord.Status()
	if status.State != "ready" {
		t.Errorf("Status().State = %q, want ready (old snapshot stays servable)", status.State)
	}
	if !status.Stale {
		t.Error("Status().Stale = false after failed cycle, want true")
	}
	if status.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", status.ConsecutiveFailures)
	}

	// Recovery clears staleness and advances the version
	client.mu.Lock()
	client.librariesErr = nil
	client.mu.Unlock()

	out, err = coord.RequestRefresh(context.Background())
	if err != nil || out.Err != nil {
		t.Fatalf("recovery RequestRefresh() = %v, %v", out.Err, err)
	}
	if out.Version != 2 {
		t.Errorf("recovery Outcome.Version = %d, want 2", out.Version)
	}
	status = coord.Status()
	if status.Stale {
		t.Error("Status().Stale = true after recovery, want false")
	}
	if status.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d after recovery, want 0", status.ConsecutiveFailures)
	}
}

func TestStatusBeforeFirstRefresh(t *testing.T) {
	coord, _ := newTestCoordinator(newFixtureClient())

	status := coord.Status()
	if status.State != "empty" {
		t.Errorf("Status().State = %q, want empty", status.State)
	}
	if status.Version != 0 {
		t.Errorf("Status().Version = %d, want 0", status.Version)
	}
}

func TestAwaitReadyTimesOut(t *testing.T) {
	client := newFixtureClient()
	cfg := testRefreshConfig()
	cfg.ReadyTimeout = 50 * time.Millisecond
	coord := NewCoordinator(NewBuilder(client, cfg), store.New(), cfg)

	err := coord.AwaitReady(context.Background())
	if !errors.Is(err, store.ErrCacheNotReady) {
		t.Fatalf("AwaitReady() error = %v, want ErrCacheNotReady", err)
	}
}

func TestAwaitReadyImmediateWhenPublished(t *testing.T) {
	coord, _ := newTestCoordinator(newFixtureClient())
	if _, err := coord.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	}
	if err := coord.AwaitReady(context.Background()); err != nil {
		t.Fatalf("AwaitReady() error = %v", err)
	}
}

func TestOnCycleEndCallback(t *testing.T) {
	client := newFixtureClient()
	coord, _ := newTestCoordinator(client)

	ch := make(chan Status, 2)
	coord.SetOnCycleEnd(func(s Status) { ch <- s })

	if _, err := coord.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	}

	select {
	case s := <-ch:
		if s.Version != 1 {
			t.Errorf("callback Status.Version = %d, want 1", s.Version)
		}
		if s.LastError != "" {
			t.Errorf("callback Status.LastError = %q, want empty", s.LastError)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cycle callback never fired after publish")
	}

	client.librariesErr = errors.New("tautulli down")
	if out, err := coord.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	} else if out.Err == nil {
		t.Fatal("Outcome.Err = nil, want cycle failure")
	}

	select {
	case s := <-ch:
		if s.LastError == "" {
			t.Error("callback Status.LastError empty, want failure message")
		}
		if s.Version != 1 {
			t.Errorf("callback Status.Version = %d, want 1 (previous snapshot kept)", s.Version)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cycle callback never fired after failure")
	}
}
