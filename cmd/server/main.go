// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

// Package main is the entry point for the plexwatch server.
//
// Plexwatch caches Plex library metadata and watch history from Tautulli
// in memory and serves derived analytics over HTTP: top watcher rankings,
// genre-affinity recommendations, filtered random picks, title search, and
// library statistics. The cache is refreshed on an interval (and on
// demand) by a single-flight coordinator that publishes immutable
// snapshots; queries never block on upstream fetches and keep serving the
// last good snapshot when Tautulli is down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (CONFIG_PATH),
// built-in defaults. Required settings:
//
//	export TAUTULLI_URL=http://localhost:8181
//	export TAUTULLI_API_KEY=your-api-key
//	./plexwatch
//
// Common optional settings:
//
//	REFRESH_INTERVAL=1h        cache refresh cadence
//	REFRESH_LOOKBACK=720h      history aggregation window
//	RANKING_DURATION_WEIGHT=1.0
//	RANKING_DIVERSITY_WEIGHT=0.0
//	SERVER_PORT=8282
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP listener stops
// accepting connections, in-flight requests get the configured shutdown
// timeout, websocket clients are closed, and an in-flight refresh cycle
// is allowed to finish.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/plexwatch/internal/analytics"
	"github.com/tomtom215/plexwatch/internal/api"
	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/logging"
	"github.com/tomtom215/plexwatch/internal/refresh"
	"github.com/tomtom215/plexwatch/internal/store"
	"github.com/tomtom215/plexwatch/internal/supervisor"
	"github.com/tomtom215/plexwatch/internal/tautulli"
	"github.com/tomtom215/plexwatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("tautulli_url", cfg.Tautulli.URL).
		Dur("refresh_interval", cfg.Refresh.Interval).
		Dur("lookback", cfg.Refresh.Lookback).
		Msg("Starting plexwatch")

	// Circuit-broken Tautulli client; a failed ping is not fatal, the
	// refresh loop retries on its own schedule
	client := tautulli.NewBreakerClient(&cfg.Tautulli)
	if err := client.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to connect to Tautulli (will retry)")
	} else {
		logging.Info().Msg("Connected to Tautulli successfully")
	}

	st := store.New()
	coordinator := refresh.NewCoordinator(refresh.NewBuilder(client, &cfg.Refresh), st, &cfg.Refresh)

	hub := websocket.NewHub()
	coordinator.SetOnCycleEnd(func(s refresh.Status) {
		if s.LastError != "" {
			hub.BroadcastRefreshFailed(s.Version, s.LastError, s.ConsecutiveFailures)
			return
		}
		hub.BroadcastSnapshotPublished(s.Version, s.ItemCount, s.ProfileCount)
	})

	handlers := api.NewHandlers(
		st,
		coordinator,
		client,
		analytics.NewRanker(st, &cfg.Ranking),
		analytics.NewRecommender(st, &cfg.Recommend),
		analytics.NewRandomSelector(st, &cfg.Random),
		analytics.NewLibrary(st),
		hub,
	)
	router := api.NewRouter(handlers, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog into slog for sutureslog
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddCacheService(coordinator)
	tree.AddCacheService(hub)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// First-run gate: wait (bounded) for the initial snapshot. Expiry is
	// degraded service, not a startup failure; queries answer 503 until
	// the coordinator publishes.
	go func() {
		if err := coordinator.AwaitReady(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				logging.Warn().Err(err).Msg("No snapshot within ready timeout, serving 503s until upstream recovers")
			}
			return
		}
		logging.Info().Msg("Initial snapshot published, cache ready")
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
