package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"emailwise/backend/internal/handlers"
	"emailwise/backend/internal/llm"
	"emailwise/backend/internal/llm/providers"
	"emailwise/backend/internal/middleware"
	"emailwise/backend/internal/realtime"
)

func newTestRouter(limit int) *Router {
	analyzer := llm.NewAnalyzer(providers.NewUnavailable("openai"), nil, 0, zerolog.Nop())
	api := handlers.NewAPI(analyzer, zerolog.Nop(), time.Second)
	return New(api, middleware.NewRateLimiter(limit, time.Minute), "", realtime.NewHub())
}

func TestRouterAnalyzeLocal(t *testing.T) {
	rt := newTestRouter(10)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/", strings.NewReader(`{"email_content":"Subject: Budget Review\nPlease send the report by Friday. This is urgent."}`))
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req.WithContext(context.Background()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{`"method":"local"`, `"subject":"Budget Review"`, `"priority":"High"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("missing %s in %s", want, rec.Body.String())
		}
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers")
	}
}

func TestRouterRateLimitsAPI(t *testing.T) {
	rt := newTestRouter(1)
	send := func(path string) int {
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"email_content":"hi","query":"q"}`)))
		return rec.Code
	}
	if code := send("/api/chat"); code != http.StatusOK {
		t.Fatalf("expected first request through, got %d", code)
	}
	if code := send("/api/chat"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health to bypass limiter, got %d", rec.Code)
	}
}

func TestRouterNotFoundAndMetrics(t *testing.T) {
	rt := newTestRouter(10)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/history", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus exposition, got %d", rec.Code)
	}
}
