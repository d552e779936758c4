// Package adminhttp is the kernel's only HTTP surface: a read-only
// introspection endpoint over the API risk table and apispec lookup, plus
// a liveness/readiness pair (spec.md §6). The RPC/tool-dispatch front end
// that calls querymanager/apimanager directly is an external collaborator
// per spec.md §1 and is not built here.
package adminhttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/pgsentry/pkg/id"
)

// Timeouts mirror the teacher's app.go constants, scaled down for a
// backend gateway with no long-lived client connections to hold open.
const (
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 10 * time.Second
	IdleTimeout       = 60 * time.Second
	ReadHeaderTimeout = 5 * time.Second
	MaxHeaderBytes    = 1 << 20 // 1MB
)

type contextKey int

const requestIDKey contextKey = iota

// requestIDMiddleware installs an X-Request-Id header (generating one with the
// teacher's ULID generator when the caller didn't supply one) and stashes
// it in the request context for handlers and logging to pick up.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = id.NewULID()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFromContext returns the request ID stashed by requestIDMiddleware,
// or "" if none is present (e.g. in a unit test that calls a handler directly).
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// recoverer turns a panic in a handler into a 500 response instead of
// crashing the process, logging the recovered value at error level.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered in handler",
						slog.Any("panic", rec),
						slog.String("request_id", requestIDFromContext(r.Context())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
