// Package requestid assigns each request an identifier that follows it
// through logs and audit events.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"cadlink/pkg/requestcontext"
)

// Header carries the request ID on both request and response.
const Header = "X-Request-Id"

// Middleware adopts the caller's request ID when present, otherwise mints
// one, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
