package cache

import (
	"net/http"
	"time"
)

// Manager holds the dashboard response cache. Aggregates are snapshot-at-query
// and may legitimately lag a concurrent submission, so the cache is bounded by
// a short TTL rather than precise invalidation; write paths may still clear it
// eagerly through InvalidateDashboard.
type Manager struct {
	dashboard *LRUCache
}

// NewManager creates a Manager with the given dashboard TTL. A zero or
// negative ttl disables caching and returns nil; callers treat a nil Manager
// as pass-through.
func NewManager(ttl time.Duration, maxSize int) *Manager {
	if ttl <= 0 {
		return nil
	}
	return &Manager{dashboard: NewLRUCache(maxSize, ttl)}
}

// InvalidateDashboard clears all cached dashboard payloads. Submission
// handlers call this after a commit so the next dashboard read reflects it.
func (m *Manager) InvalidateDashboard() {
	if m == nil {
		return
	}
	m.dashboard.InvalidateAll()
}

// DashboardMiddleware returns HTTP middleware that caches dashboard GET
// responses. On a nil Manager it is the identity middleware.
func (m *Manager) DashboardMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return CacheMiddleware(m.dashboard)
}
