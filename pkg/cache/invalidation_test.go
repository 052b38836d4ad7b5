package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewManagerDisabledByZeroTTL(t *testing.T) {
	if m := NewManager(0, 10); m != nil {
		t.Error("expected nil manager for zero TTL")
	}
	if m := NewManager(-time.Second, 10); m != nil {
		t.Error("expected nil manager for negative TTL")
	}
}

func TestNilManagerIsPassThrough(t *testing.T) {
	var m *Manager
	m.InvalidateDashboard() // must not panic

	calls := 0
	handler := m.DashboardMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 handler calls without caching, got %d", calls)
	}
}

func TestInvalidateDashboardClearsCache(t *testing.T) {
	m := NewManager(time.Minute, 10)

	calls := 0
	handler := m.DashboardMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	req := func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))
	}

	req()
	req()
	if calls != 1 {
		t.Fatalf("expected cached second read, got %d handler calls", calls)
	}

	m.InvalidateDashboard()
	req()
	if calls != 2 {
		t.Errorf("expected fresh read after invalidation, got %d handler calls", calls)
	}
}
