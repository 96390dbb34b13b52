package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// PROMETHEUS METRICS
// =============================================================================

var (
	// httpRequestsTotal counts requests by route pattern and status code
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saju_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "method", "status"})

	// httpRequestDuration tracks request latency by route
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saju_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"route"})

	// computationsTotal counts engine operations by source (formula/almanac)
	computationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saju_computations_total",
		Help: "Engine computations by operation and pillar source",
	}, []string{"operation", "source"})

	// computationDuration tracks engine latency by operation
	computationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saju_computation_duration_seconds",
		Help:    "Engine computation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10us to ~330ms
	}, []string{"operation"})

	// computationErrors counts failed computations by error class
	computationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saju_computation_errors_total",
		Help: "Failed engine computations by operation and error class",
	}, []string{"operation", "class"})

	// daeunFallbacks counts decade luck lists built with the fixed start age
	daeunFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saju_daeun_fallback_total",
		Help: "Daeun lists computed with the fallback start age",
	})

	// almanacRowsSeeded counts rows written by seed runs
	almanacRowsSeeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saju_almanac_rows_seeded_total",
		Help: "Almanac rows written by seed runs",
	})
)

// instrument records request count and latency under the matched route
// pattern, so path parameters do not explode label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
