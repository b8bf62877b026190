// Package metrics provides Prometheus metrics for conversions and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

var (
	// Conversion metrics
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regmap_conversions_total",
			Help: "Total number of document conversions",
		},
		[]string{"backend", "status"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "regmap_conversion_duration_seconds",
			Help:    "Time taken to convert a document",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)

	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regmap_records_extracted_total",
			Help: "Total number of canonical records produced",
		},
		[]string{"backend"},
	)

	TablesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regmap_tables_skipped_total",
			Help: "Total number of raw tables that produced no rows",
		},
		[]string{"backend"},
	)

	ConversionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "regmap_conversions_active",
			Help: "Number of conversions holding a slot, by backend",
		},
		[]string{"backend"},
	)

	// History metrics
	HistoryPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "regmap_history_purged_total",
			Help: "Total number of conversions removed by retention",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regmap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "regmap_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regmap_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// RecordConversion records the outcome of one conversion.
func RecordConversion(backend, status string, records, skipped int, duration time.Duration) {
	ConversionsTotal.WithLabelValues(backend, status).Inc()
	ConversionDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if records > 0 {
		RecordsExtracted.WithLabelValues(backend).Add(float64(records))
	}
	if skipped > 0 {
		TablesSkipped.WithLabelValues(backend).Add(float64(skipped))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests by chi route pattern so path parameters
// do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
