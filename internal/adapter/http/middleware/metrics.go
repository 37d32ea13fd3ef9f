package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/custbalance/internal/infrastructure/metrics"
)

// Metrics returns a middleware recording HTTP request metrics into m.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPInFlight.Inc()
			defer m.HTTPInFlight.Dec()

			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Path segments that follow an ID. Anything else after the prefix is a
// fixed route such as /api/v1/customers/outstanding.
var idPrefixes = []string{"/api/v1/entries/", "/api/v1/customers/"}

var staticSegments = map[string]bool{"outstanding": true}

// normalizePath replaces IDs in URL paths to keep label cardinality bounded.
// /api/v1/customers/01ABC/balance -> /api/v1/customers/:id/balance
func normalizePath(path string) string {
	for _, prefix := range idPrefixes {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}

		id, suffix, found := strings.Cut(rest, "/")
		if staticSegments[id] {
			return path
		}
		if found {
			suffix = "/" + suffix
		}
		return prefix + ":id" + suffix
	}

	return path
}
