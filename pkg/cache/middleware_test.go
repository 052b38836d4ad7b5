package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCacheMiddleware(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"SecondDashboardReadServedFromCache", testSecondDashboardReadServedFromCache},
		{"WritesPassThroughUncached", testWritesPassThroughUncached},
		{"ErrorResponsesNotCached", testErrorResponsesNotCached},
		{"DashboardAndAssetsCachedSeparately", testDashboardAndAssetsCachedSeparately},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func dashboardStub(calls *int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func testSecondDashboardReadServedFromCache(t *testing.T) {
	calls := 0
	c := NewLRUCache(8, time.Minute)
	wrapped := CacheMiddleware(c)(dashboardStub(&calls, `{"buckets":{"all_time":{"count":42}}}`))

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	if calls != 1 {
		t.Fatalf("expected one aggregation run, got %d", calls)
	}
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("first read should miss, X-Cache=%q", got)
	}

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	if calls != 1 {
		t.Fatalf("second read hit the handler, %d calls", calls)
	}
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("second read should hit, X-Cache=%q", got)
	}

	body, _ := io.ReadAll(second.Result().Body)
	if string(body) != `{"buckets":{"all_time":{"count":42}}}` {
		t.Fatalf("cached body mismatch: %q", string(body))
	}
}

func testWritesPassThroughUncached(t *testing.T) {
	calls := 0
	c := NewLRUCache(8, time.Minute)
	wrapped := CacheMiddleware(c)(dashboardStub(&calls, `{"id":1}`))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events/logs", nil))
		if got := rec.Header().Get("X-Cache"); got != "" {
			t.Fatalf("POST carried X-Cache=%q", got)
		}
	}

	if calls != 2 {
		t.Fatalf("expected every POST to reach the handler, got %d calls", calls)
	}
	if c.Size() != 0 {
		t.Fatalf("POST response was cached, size %d", c.Size())
	}
}

func testErrorResponsesNotCached(t *testing.T) {
	calls := 0
	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"database unavailable","kind":"transient"}`))
	})

	c := NewLRUCache(8, time.Minute)
	wrapped := CacheMiddleware(c)(failing)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	}

	// A failed aggregation must not shadow the next attempt.
	if calls != 2 {
		t.Fatalf("error response was served from cache, %d calls", calls)
	}
	if c.Size() != 0 {
		t.Fatalf("error response was stored, size %d", c.Size())
	}
}

func testDashboardAndAssetsCachedSeparately(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.URL.Path))
	})

	c := NewLRUCache(8, time.Minute)
	wrapped := CacheMiddleware(c)(handler)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if get("/api/v1/dashboard").Header().Get("X-Cache") != "MISS" ||
		get("/api/v1/dashboard/assets").Header().Get("X-Cache") != "MISS" {
		t.Fatal("expected cold reads to miss")
	}

	rec := get("/api/v1/dashboard")
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Fatal("expected warm dashboard read to hit")
	}
	body, _ := io.ReadAll(rec.Result().Body)
	if string(body) != "/api/v1/dashboard" {
		t.Fatalf("dashboard key served the wrong body: %q", string(body))
	}
	if c.Size() != 2 {
		t.Fatalf("expected two independent entries, got %d", c.Size())
	}
}
