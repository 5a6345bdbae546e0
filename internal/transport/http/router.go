package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "cadlink/internal/platform/metrics"
	"cadlink/pkg/platform/httputil"
	"cadlink/pkg/platform/middleware/recovery"
	"cadlink/pkg/platform/middleware/requestid"
	"cadlink/pkg/platform/middleware/requesttime"
	"cadlink/pkg/requestcontext"
)

// HealthCheck is one named dependency probe for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter assembles the middleware stack and mounts all endpoints.
// httpMetrics may be nil (no transport metrics registered).
func NewRouter(h *Handler, logger *slog.Logger, httpMetrics *platformmetrics.HTTP, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(recovery.Middleware(logger))
	r.Use(httpMetrics.Middleware)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.AllowContentType("application/json"))
	r.Use(chimiddleware.Timeout(120 * time.Second))

	r.Get("/healthz", handleHealthz(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Register(r)
	return r
}

func handleHealthz(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[c.Name] = err.Error()
			} else {
				body[c.Name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"request_id", requestcontext.RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
