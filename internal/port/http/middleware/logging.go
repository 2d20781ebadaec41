package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/platform/metrics"
)

// RequestLogger logs every request and feeds the latency and error metrics.
// The route pattern (not the raw path) is used as the metric label so that
// /api/listings/{id} stays one series.
func RequestLogger(log logger.Logger, m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			status := ww.Status()

			if m != nil {
				m.HTTPRequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
				if status >= 400 {
					m.HTTPRequestErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
				}
			}

			log.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, status, elapsed)
		})
	}
}
