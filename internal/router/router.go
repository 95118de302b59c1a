package router

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"emailwise/backend/internal/handlers"
	"emailwise/backend/internal/middleware"
	"emailwise/backend/internal/realtime"
)

type Router struct {
	api      *handlers.API
	limiter  *middleware.RateLimiter
	origin   string
	hub      *realtime.Hub
	upgrader *websocket.Upgrader
	metrics  http.Handler
}

func New(api *handlers.API, limiter *middleware.RateLimiter, origin string, hub *realtime.Hub) *Router {
	return &Router{
		api:      api,
		limiter:  limiter,
		origin:   origin,
		hub:      hub,
		upgrader: realtime.NewUpgrader(origin),
		metrics:  promhttp.Handler(),
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if middleware.HandleCORS(w, r, rt.origin) {
		return
	}
	middleware.SecurityHeaders(w)

	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	if rateLimited(path) && rt.limiter != nil {
		if !rt.limiter.Allow(middleware.ClientKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("{\"success\":false,\"error\":\"rate limit exceeded\"}"))
			return
		}
	}

	switch {
	case path == "/healthz":
		if r.Method == http.MethodGet {
			rt.api.Health(w, r)
			return
		}
	case path == "/metrics":
		if r.Method == http.MethodGet {
			rt.metrics.ServeHTTP(w, r)
			return
		}
	case path == "/api/analyze":
		if r.Method == http.MethodPost {
			rt.api.AnalyzeEmail(w, r)
			return
		}
	case path == "/api/analyze/batch":
		if r.Method == http.MethodPost {
			rt.api.BatchAnalyze(w, r)
			return
		}
	case path == "/api/chat":
		if r.Method == http.MethodPost {
			rt.api.Chat(w, r)
			return
		}
	case path == "/api/history":
		if r.Method == http.MethodGet {
			rt.api.ListHistory(w, r)
			return
		}
	case strings.HasPrefix(path, "/api/jobs/"):
		id := strings.TrimPrefix(path, "/api/jobs/")
		if r.Method == http.MethodGet && id != "" && !strings.Contains(id, "/") {
			rt.api.GetJob(w, r, id)
			return
		}
	case path == "/api/ws":
		if r.Method == http.MethodGet && rt.hub != nil {
			realtime.ServeWS(w, r, rt.hub, rt.upgrader)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("{\"success\":false,\"error\":\"not found\"}"))
}

func rateLimited(path string) bool {
	switch path {
	case "/healthz", "/metrics", "/api/ws":
		return false
	default:
		return strings.HasPrefix(path, "/api/")
	}
}
