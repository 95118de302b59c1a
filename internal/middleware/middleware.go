package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"emailwise/backend/internal/metrics"
)

func HandleCORS(w http.ResponseWriter, r *http.Request, allowedOrigin string) bool {
	if allowedOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func SecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
}

type RateLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	items  map[string]*rateEntry
}

type rateEntry struct {
	count int
	reset time.Time
}

const maxTrackedClients = 10000

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, items: map[string]*rateEntry{}}
}

func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if len(rl.items) >= maxTrackedClients {
		for k, entry := range rl.items {
			if now.After(entry.reset) {
				delete(rl.items, k)
			}
		}
	}
	entry, ok := rl.items[key]
	if !ok || now.After(entry.reset) {
		rl.items[key] = &rateEntry{count: 1, reset: now.Add(rl.window)}
		return true
	}
	if entry.count >= rl.limit {
		return false
	}
	entry.count++
	return true
}

func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// Logging records one structured log line and one latency sample per request.
func Logging(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.RecordHTTPRequest(r.Method, RouteLabel(r.URL.Path), strconv.Itoa(rec.status), elapsed)
		event := log.Info()
		if rec.status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Str("client", ClientKey(r)).
			Msg("request")
	})
}

// RouteLabel collapses per-resource paths so metric labels stay bounded.
func RouteLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/jobs/"):
		return "/api/jobs/{id}"
	case path == "/api/analyze", path == "/api/analyze/batch", path == "/api/chat",
		path == "/api/history", path == "/api/ws", path == "/healthz", path == "/metrics":
		return path
	default:
		return "other"
	}
}
