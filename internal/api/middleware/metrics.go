// metrics.go — Prometheus HTTP метрики Biology Module:
// bio_http_requests_total, bio_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bio_http_requests_total",
			Help: "Общее количество HTTP-запросов к Biology Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bio_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Biology Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// knownPaths — пути, попадающие в лейблы метрик как есть.
var knownPaths = map[string]bool{
	"/races/list":              true,
	"/races/list_with_nations": true,
	"/nations/list":            true,
	"/health/live":             true,
	"/health/ready":            true,
	"/metrics":                 true,
}

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath сворачивает неизвестные пути в "other",
// чтобы сканеры не раздували кардинальность метрик.
func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}
