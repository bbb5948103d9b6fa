// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/plexwatch/internal/config"
)

// Router assembles the Chi route tree.
type Router struct {
	handlers   *Handlers
	middleware *Middleware
}

// NewRouter creates the router for the given handlers and server config.
func NewRouter(handlers *Handlers, cfg *config.ServerConfig) *Router {
	return &Router{
		handlers:   handlers,
		middleware: NewMiddleware(cfg),
	}
}

// Setup builds the complete handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Operational endpoints: no rate limiting, no snapshot headers
	r.Get("/healthz/live", router.handlers.HealthLive)
	r.Get("/healthz/ready", router.handlers.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(Instrument)
		r.Use(router.snapshotHeaders)

		r.Get("/top", router.handlers.Top)
		r.Get("/random", router.handlers.Random)
		r.Get("/recommend/{user}", router.handlers.Recommend)
		r.Get("/search", router.handlers.Search)
		r.Get("/recent", router.handlers.Recent)
		r.Get("/items/{id}", router.handlers.Item)
		r.Get("/stats", router.handlers.Stats)
		r.Get("/status", router.handlers.Status)
		r.Post("/refresh", router.handlers.Refresh)
		r.Get("/ws", router.handlers.WebSocket)
	})

	return r
}

// snapshotHeaders stamps every API response with the snapshot version and
// staleness flag so clients can tell when answers come from an aging
// snapshot.
func (router *Router) snapshotHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := router.handlers.refresher.Status()
		if status.Version > 0 {
			w.Header().Set("X-Snapshot-Version", strconv.FormatInt(status.Version, 10))
			w.Header().Set("X-Snapshot-Stale", strconv.FormatBool(status.Stale))
		}
		next.ServeHTTP(w, r)
	})
}
