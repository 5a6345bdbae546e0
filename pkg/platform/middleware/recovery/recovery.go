// Package recovery converts handler panics into 500 responses instead of
// dropped connections.
package recovery

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/platform/httputil"
	"cadlink/pkg/requestcontext"
)

// Middleware recovers panics, logs the stack, and answers with the standard
// internal error envelope.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic while handling request",
						"request_id", requestcontext.RequestID(r.Context()),
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					httputil.WriteError(w, dErrors.Newf(dErrors.CodeInternal, "panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
