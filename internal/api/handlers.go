// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/plexwatch/internal/analytics"
	"github.com/tomtom215/plexwatch/internal/logging"
	"github.com/tomtom215/plexwatch/internal/refresh"
	"github.com/tomtom215/plexwatch/internal/store"
	"github.com/tomtom215/plexwatch/internal/tautulli"
	"github.com/tomtom215/plexwatch/internal/websocket"
)

// serverInfoTimeout bounds the live Tautulli lookup inside /status so a
// hung upstream cannot stall the endpoint.
const serverInfoTimeout = 2 * time.Second

// Refresher is the slice of the refresh coordinator the handlers consume.
type Refresher interface {
	RequestRefresh(ctx context.Context) (refresh.Outcome, error)
	Status() refresh.Status
}

// Handlers holds the HTTP handlers and their engine dependencies.
type Handlers struct {
	store       *store.Store
	refresher   Refresher
	upstream    tautulli.Interface
	ranker      *analytics.Ranker
	recommender *analytics.Recommender
	random      *analytics.RandomSelector
	library     *analytics.Library
	hub         *websocket.Hub
	upgrader    gorillaws.Upgrader
}

// NewHandlers wires the handler set.
func NewHandlers(
	st *store.Store,
	refresher Refresher,
	upstream tautulli.Interface,
	ranker *analytics.Ranker,
	recommender *analytics.Recommender,
	random *analytics.RandomSelector,
	library *analytics.Library,
	hub *websocket.Hub,
) *Handlers {
	return &Handlers{
		store:       st,
		refresher:   refresher,
		upstream:    upstream,
		ranker:      ranker,
		recommender: recommender,
		random:      random,
		library:     library,
		hub:         hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Top handles GET /api/v1/top. Query param n bounds the result size.
func (h *Handlers) Top(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	n, ok := queryInt(rw, r, "n", 0)
	if !ok {
		return
	}

	top, err := h.ranker.TopN(n)
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.SuccessWithMeta(top, &APIMeta{Count: len(top)})
}

// Random handles GET /api/v1/random?type=&genre=.
func (h *Handlers) Random(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	item, err := h.random.Pick(r.URL.Query().Get("type"), r.URL.Query().Get("genre"))
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.Success(item)
}

// Recommend handles GET /api/v1/recommend/{user}?k=. The user segment is
// a numeric Tautulli user ID or a username.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user := chi.URLParam(r, "user")
	if user == "" {
		rw.BadRequest("missing user")
		return
	}
	k, ok := queryInt(rw, r, "k", 0)
	if !ok {
		return
	}

	var (
		recs []analytics.Recommendation
		err  error
	)
	if userID, convErr := strconv.Atoi(user); convErr == nil {
		recs, err = h.recommender.Recommend(userID, k)
	} else {
		recs, err = h.recommender.RecommendByName(user, k)
	}
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.SuccessWithMeta(recs, &APIMeta{Count: len(recs)})
}

// Search handles GET /api/v1/search?q=&limit=.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query().Get("q")
	if q == "" {
		rw.BadRequest("missing query parameter q")
		return
	}
	limit, ok := queryInt(rw, r, "limit", 25)
	if !ok {
		return
	}

	items, err := h.library.Search(q, limit)
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.SuccessWithMeta(items, &APIMeta{Count: len(items)})
}

// Recent handles GET /api/v1/recent?limit=&type=.
func (h *Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, ok := queryInt(rw, r, "limit", 25)
	if !ok {
		return
	}

	items, err := h.library.RecentlyAdded(limit, r.URL.Query().Get("type"))
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.SuccessWithMeta(items, &APIMeta{Count: len(items)})
}

// itemDetail is the GET /api/v1/items/{id} payload.
type itemDetail struct {
	*store.MediaItem
	WatcherCount int `json:"watcher_count"`
}

// Item handles GET /api/v1/items/{id}. The item and its watcher count come
// from the same snapshot.
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	snap, err := h.store.Snapshot()
	if err != nil {
		writeDomainError(rw, err)
		return
	}

	id := chi.URLParam(r, "id")
	item, err := snap.Item(id)
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.SuccessWithMeta(itemDetail{MediaItem: item, WatcherCount: snap.WatcherCount(id)},
		&APIMeta{SnapshotVersion: snap.Version()})
}

// Stats handles GET /api/v1/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.library.Stats()
	if err != nil {
		writeDomainError(rw, err)
		return
	}
	rw.Success(stats)
}

// plexServerInfo is the Plex server block of the status payload, resolved
// live from Tautulli on each request.
type plexServerInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Platform  string `json:"platform"`
	MachineID string `json:"machine_identifier"`
}

// statusPayload is the GET /api/v1/status response body.
type statusPayload struct {
	refresh.Status
	Server *plexServerInfo `json:"server,omitempty"`
}

// Status handles GET /api/v1/status. Always answers, even before the
// first refresh; the Plex server block is best-effort and omitted when
// Tautulli is unreachable.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	payload := statusPayload{Status: h.refresher.Status()}

	ctx, cancel := context.WithTimeout(r.Context(), serverInfoTimeout)
	defer cancel()
	if info, err := h.upstream.GetServerInfo(ctx); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Debug().Err(err).Msg("server info unavailable for status")
	} else {
		d := info.Response.Data
		payload.Server = &plexServerInfo{
			Name:      d.PMSName,
			Version:   d.PMSVersion,
			Platform:  d.PMSPlatform,
			MachineID: d.PMSIdentifier,
		}
	}

	NewResponseWriter(w, r).Success(payload)
}

// Refresh handles POST /api/v1/refresh. Concurrent requests coalesce into
// the in-flight cycle; disconnecting only detaches this waiter.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	out, err := h.refresher.RequestRefresh(r.Context())
	if err != nil {
		// Client went away; the cycle continues on its own
		rw.Error(http.StatusRequestTimeout, ErrCodeBadRequest, "request cancelled while waiting for refresh")
		return
	}
	if out.Err != nil {
		rw.Error(http.StatusBadGateway, ErrCodeRefreshFailed, out.Err.Error())
		return
	}
	rw.Success(out)
}

// WebSocket handles GET /api/v1/ws, upgrading to a hub-managed connection.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

// HealthLive handles GET /healthz/live: process liveness only.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /healthz/ready: ready once a snapshot is
// published.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.store.Ready() {
		rw.ServiceUnavailable(ErrCodeCacheNotReady, "no snapshot published yet", cacheNotReadyRetryAfter)
		return
	}
	rw.Success(map[string]interface{}{
		"status":     "ready",
		"fetched_at": h.refresher.Status().FetchedAt.Format(time.RFC3339),
	})
}

// queryInt parses an optional integer query parameter, writing a 400 and
// returning ok=false on garbage.
func queryInt(rw *ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		rw.BadRequest("invalid " + name + " parameter")
		return 0, false
	}
	return v, true
}
