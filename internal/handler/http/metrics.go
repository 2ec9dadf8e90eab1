package http

import (
	"net/http"
	"strconv"
	"time"

	"feedhistd/internal/handler/http/pathutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics
var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration tracks request latency with optimized buckets for API response times.
	// Buckets are designed to capture:
	// - Fast responses: 5ms, 10ms, 25ms
	// - Normal responses: 50ms, 100ms, 250ms
	// - Slow responses: 500ms, 1s, 2.5s, 5s, 10s
	// This enables accurate p95 and p99 latency measurements.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestsInFlight tracks the current number of HTTP requests being processed.
	// This metric helps identify:
	// - Load levels and capacity
	// - Request queuing issues
	// - Potential bottlenecks
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// Application metrics
	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// Business metrics
	trackedSourcesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracked_sources_total",
			Help: "Total number of feed sources in the catalog",
		},
	)

	historyTraversalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_traversals_total",
			Help: "Total number of feed history traversals, by outcome",
		},
		[]string{"outcome"}, // finished, in_progress, error
	)

	historyTraversalErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_traversal_errors_total",
			Help: "Total number of failed feed history traversals, by error kind",
		},
		[]string{"kind"},
	)

	historyEntriesReturnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_entries_returned_total",
			Help: "Total number of entries returned by finished history traversals",
		},
		[]string{"endpoint"}, // history, atom
	)

	feedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetches_total",
			Help: "Total number of outbound feed page fetches, by result",
		},
		[]string{"result"}, // success, failure
	)

	feedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a single feed page",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	entryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entry_requests_total",
			Help: "Total number of GET /entry/ requests, by outcome",
		},
		[]string{"outcome"}, // content, redirect, not_found
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)

// responseWriter wraps http.ResponseWriter to record status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// MetricsMiddleware records HTTP request metrics including duration, size, and status codes.
// It uses path normalization to prevent label cardinality explosion from ID-containing paths.
// The middleware tracks:
// - In-flight requests (gauge incremented/decremented per request)
// - Request duration with optimized histogram buckets
// - Request and response sizes
// - Status code distribution
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Track in-flight requests
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Track active connections (legacy metric, kept for compatibility)
		activeConnections.Inc()
		defer activeConnections.Dec()

		// Normalize path to prevent cardinality explosion
		// Example: /articles/123 -> /articles/:id
		normalizedPath := pathutil.NormalizePath(r.URL.Path)

		// Record request size
		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, normalizedPath).Observe(float64(r.ContentLength))
		}

		// Wrap response writer to capture status code and response size
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Measure request duration
		start := time.Now()
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()

		// Record metrics (using normalized path to prevent cardinality explosion)
		status := strconv.Itoa(rw.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, normalizedPath, status).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, normalizedPath).Observe(float64(rw.size))
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHistoryTraversal records the outcome of a /history or /feed.atom
// request against the coalescing cache: "finished", "in_progress", or
// "error". A finished traversal that failed also records its error kind.
func RecordHistoryTraversal(outcome string, errKind string) {
	historyTraversalsTotal.WithLabelValues(outcome).Inc()
	if outcome == "error" && errKind != "" {
		historyTraversalErrorsTotal.WithLabelValues(errKind).Inc()
	}
}

// RecordHistoryEntriesReturned records how many entries a finished traversal
// surfaced, broken down by which endpoint served it.
func RecordHistoryEntriesReturned(endpoint string, count int) {
	historyEntriesReturnedTotal.WithLabelValues(endpoint).Add(float64(count))
}

// RecordFeedFetch records a single outbound feed page fetch.
func RecordFeedFetch(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	feedFetchesTotal.WithLabelValues(result).Inc()
	feedFetchDuration.Observe(duration.Seconds())
}

// RecordEntryRequest records the outcome of a GET /entry/ lookup: the entry
// was served inline, served as a redirect, or no entry matched the hash.
func RecordEntryRequest(outcome string) {
	entryRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordDBQuery records the duration of a database query operation.
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateTrackedSourcesTotal updates the total count of sources in the catalog.
func UpdateTrackedSourcesTotal(count int) {
	trackedSourcesTotal.Set(float64(count))
}
