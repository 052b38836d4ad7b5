package activity

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey struct{}

// RequestMeta carries the per-request fields recorded onto activity rows.
type RequestMeta struct {
	IP            string
	UserAgent     string
	CorrelationID string
}

// Middleware captures the caller's IP, user agent and correlation ID into
// the request context so submission handlers can stamp them onto the
// activity rows they write. The correlation ID comes from X-Correlation-ID,
// falling back to the chi request ID, falling back to a fresh UUID.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := RequestMeta{
				IP:            r.RemoteAddr,
				UserAgent:     r.UserAgent(),
				CorrelationID: r.Header.Get("X-Correlation-ID"),
			}
			if meta.CorrelationID == "" {
				meta.CorrelationID = middleware.GetReqID(r.Context())
			}
			if meta.CorrelationID == "" {
				meta.CorrelationID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), contextKey{}, meta)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MetaFromContext returns the request metadata captured by Middleware.
// The zero value is returned outside an HTTP request (batch tools, tests).
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(contextKey{}).(RequestMeta)
	return meta
}
