package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. WriteTimeout stays unset because import and
// re-import batches can legitimately run long; the router's timeout
// middleware bounds request time instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
