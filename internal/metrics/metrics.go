// Package metrics provides Prometheus metrics for the explorer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Explorer operation metrics
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_operations_total",
			Help: "Total explorer operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_operation_duration_seconds",
			Help:    "Explorer operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	searchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_search_results",
			Help:    "Number of nodes returned per search",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200},
		},
		[]string{"dialect"},
	)

	bulkEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_bulk_entries_total",
			Help: "Bulk move/copy entries by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records request counts and latency labelled by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// RecordOperation records one explorer operation and its outcome.
func RecordOperation(operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Track returns a func that records operation when called with its error.
func Track(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		RecordOperation(operation, time.Since(start), err)
	}
}

// RecordSearchResults records the size of one result page.
func RecordSearchResults(dialect string, count int) {
	searchResults.WithLabelValues(dialect).Observe(float64(count))
}

// RecordBulkEntries records bulk entry outcomes.
func RecordBulkEntries(operation string, succeeded, failed int) {
	bulkEntriesTotal.WithLabelValues(operation, "success").Add(float64(succeeded))
	bulkEntriesTotal.WithLabelValues(operation, "failure").Add(float64(failed))
}
