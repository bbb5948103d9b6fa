// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/logging"
	"github.com/tomtom215/plexwatch/internal/metrics"
	"github.com/tomtom215/plexwatch/internal/store"
)

// Outcome is the result of one refresh cycle as observed by a caller of
// RequestRefresh. Coalesced callers receive the outcome of the cycle that
// was already in flight.
type Outcome struct {
	Version   int64     `json:"version"`
	FetchedAt time.Time `json:"fetched_at"`
	Coalesced bool      `json:"coalesced"`
	Err       error     `json:"-"`
}

// Status is a point-in-time view of the coordinator's state for the
// status endpoint and response headers.
type Status struct {
	State               string    `json:"state"` // "empty", "refreshing", "ready"
	Version             int64     `json:"version"`
	FetchedAt           time.Time `json:"fetched_at,omitempty"`
	AgeSeconds          float64   `json:"age_seconds"`
	Stale               bool      `json:"stale"`
	Refreshing          bool      `json:"refreshing"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastSuccess         time.Time `json:"last_success,omitempty"`
	ItemCount           int       `json:"item_count"`
	ProfileCount        int       `json:"profile_count"`
}

// cycle is one in-flight refresh. Waiters block on done; the outcome is
// written exactly once, before done is closed.
type cycle struct {
	done    chan struct{}
	outcome Outcome
}

// Coordinator owns the refresh cycle: it schedules periodic refreshes,
// coalesces concurrent refresh requests into a single upstream fetch, and
// atomically publishes new snapshots while keeping the previous snapshot
// servable on failure.
//
// State machine: EMPTY -> REFRESHING -> READY, then READY -> REFRESHING ->
// READY on every subsequent cycle; a failed cycle after at least one
// success leaves the store READY with stale=true.
//
// The coordinator is the only writer of the store's snapshot pointer.
// Mutual exclusion among writers is the single-flight rule itself; readers
// never take locks.
type Coordinator struct {
	builder      *Builder
	store        *store.Store
	interval     time.Duration
	readyTimeout time.Duration

	mu          sync.Mutex
	inflight    *cycle
	version     int64
	lastSuccess time.Time
	lastErr     error
	failures    int

	readyOnce sync.Once
	readyCh   chan struct{}

	onCycleEnd func(Status)
}

// NewCoordinator creates a refresh coordinator publishing into st.
func NewCoordinator(builder *Builder, st *store.Store, cfg *config.RefreshConfig) *Coordinator {
	return &Coordinator{
		builder:      builder,
		store:        st,
		interval:     cfg.Interval,
		readyTimeout: cfg.ReadyTimeout,
		readyCh:      make(chan struct{}),
	}
}

// SetOnCycleEnd registers a callback invoked after every completed refresh
// cycle, successful or not; inspect Status.LastError to tell which. Must be
// called before Serve starts. The callback runs outside the coordinator's
// lock.
func (c *Coordinator) SetOnCycleEnd(fn func(Status)) {
	c.onCycleEnd = fn
}

// RequestRefresh triggers a refresh cycle, or joins the one already in
// flight (single-flight rule: concurrent triggers produce exactly one
// upstream fetch and all callers observe the same resulting snapshot
// version). Cancelling ctx only detaches this waiter; the in-flight cycle
// still completes and publishes.
func (c *Coordinator) RequestRefresh(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	cy := c.inflight
	coalesced := cy != nil
	if !coalesced {
		cy = &cycle{done: make(chan struct{})}
		c.inflight = cy
		go c.run(cy)
	}
	c.mu.Unlock()

	if coalesced {
		metrics.RefreshCoalescedRequests.Inc()
	}

	select {
	case <-cy.done:
		out := cy.outcome
		out.Coalesced = coalesced
		return out, nil
	case <-ctx.Done():
		return Outcome{Coalesced: coalesced}, ctx.Err()
	}
}

// run executes one refresh cycle. It deliberately does not inherit any
// caller's context: a coalesced waiter detaching must not cancel the cycle.
func (c *Coordinator) run(cy *cycle) {
	c.mu.Lock()
	candidate := c.version + 1
	c.mu.Unlock()

	started := time.Now()
	snap, err := c.builder.BuildSnapshot(context.Background(), candidate)
	elapsed := time.Since(started)
	metrics.RecordRefreshCycle(elapsed, err)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		c.failures++
		metrics.RefreshConsecutiveFailures.Set(float64(c.failures))
		if c.store.Ready() {
			// Previous snapshot stays live, now stale
			metrics.SnapshotStale.Set(1)
		}
		cy.outcome = Outcome{Version: c.version, Err: err}
		logging.Error().Err(err).Int("consecutive_failures", c.failures).Dur("elapsed", elapsed).Msg("Refresh cycle failed")
	} else {
		c.version = candidate
		c.store.Publish(snap)
		c.lastSuccess = time.Now()
		c.lastErr = nil
		c.failures = 0
		metrics.RefreshConsecutiveFailures.Set(0)
		metrics.RecordSnapshot(snap.Version(), snap.ItemCount(), snap.ProfileCount())
		cy.outcome = Outcome{Version: snap.Version(), FetchedAt: snap.FetchedAt()}
		c.readyOnce.Do(func() { close(c.readyCh) })
		logging.Info().Int64("version", snap.Version()).Dur("elapsed", elapsed).Msg("Snapshot published")
	}
	c.inflight = nil
	cb := c.onCycleEnd
	c.mu.Unlock()

	close(cy.done)

	if cb != nil {
		cb(c.Status())
	}
}

// AwaitReady blocks until the first successful refresh has published a
// snapshot, the configured ready timeout elapses, or ctx is cancelled.
func (c *Coordinator) AwaitReady(ctx context.Context) error {
	if c.store.Ready() {
		return nil
	}

	timer := time.NewTimer(c.readyTimeout)
	defer timer.Stop()

	select {
	case <-c.readyCh:
		return nil
	case <-timer.C:
		return fmt.Errorf("cache not ready within %s: %w", c.readyTimeout, store.ErrCacheNotReady)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the coordinator's current state. A snapshot is stale when
// the last refresh attempt failed after a prior success, or when its age
// exceeds one refresh interval.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	refreshing := c.inflight != nil
	lastErr := c.lastErr
	failures := c.failures
	lastSuccess := c.lastSuccess
	c.mu.Unlock()

	st := Status{
		Refreshing:          refreshing,
		ConsecutiveFailures: failures,
		LastSuccess:         lastSuccess,
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}

	snap, err := c.store.Snapshot()
	if err != nil {
		st.State = "empty"
		if refreshing {
			st.State = "refreshing"
		}
		return st
	}

	age := snap.Age()
	st.State = "ready"
	st.Version = snap.Version()
	st.FetchedAt = snap.FetchedAt()
	st.AgeSeconds = age.Seconds()
	st.Stale = lastErr != nil || age > c.interval
	st.ItemCount = snap.ItemCount()
	st.ProfileCount = snap.ProfileCount()

	metrics.SnapshotAge.Set(age.Seconds())
	return st
}

// Serve implements suture.Service: it runs an immediate first refresh and
// then refreshes on the configured interval until ctx is cancelled.
// Individual cycle failures are not fatal; the service keeps serving the
// last good snapshot and retries on the next tick.
func (c *Coordinator) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", c.interval).Msg("Refresh coordinator started")

	if _, err := c.RequestRefresh(ctx); err != nil {
		return err // only ctx cancellation reaches here
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.RequestRefresh(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			logging.Info().Msg("Refresh coordinator stopping")
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (c *Coordinator) String() string {
	return "refresh-coordinator"
}
