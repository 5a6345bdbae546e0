// Package requesttime pins a single "now" per HTTP request. Every timestamp
// written while handling one request (link transitions, audit events, review
// items) comes from the same instant.
package requesttime

import (
	"net/http"
	"time"

	"cadlink/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context for consistent time references throughout the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
