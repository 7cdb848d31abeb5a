package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service", "circuit_name"},
	)

	// CircuitBreakerFailures tracks circuit breaker failures
	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"service", "circuit_name"},
	)

	// BulkheadActiveRequests tracks active requests in bulkhead
	BulkheadActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bulkhead_active_requests",
			Help: "Number of active requests in bulkhead",
		},
		[]string{"service", "bulkhead_name"},
	)

	// BulkheadRejectedRequests tracks rejected requests by bulkhead
	BulkheadRejectedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkhead_rejected_requests_total",
			Help: "Total number of rejected requests by bulkhead",
		},
		[]string{"service", "bulkhead_name"},
	)

	// OrderTransitions counts order lifecycle transitions by resulting status
	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"status"},
	)

	// OrderRejections counts mutations refused by the order store
	OrderRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_rejections_total",
			Help: "Total number of rejected order mutations",
		},
		[]string{"operation", "reason"},
	)

	// OrderAmount tracks settled order totals
	OrderAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_amount_euros",
			Help:    "Settled order totals in euros",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
		},
	)

	// ReservationTransitions counts reservation transitions by resulting status
	ReservationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_transitions_total",
			Help: "Total number of reservation status transitions",
		},
		[]string{"status"},
	)

	// WatchdogRuns tracks expiration checks by trigger (tick, kick, manual)
	WatchdogRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_watchdog_runs_total",
			Help: "Total number of reservation expiration checks",
		},
		[]string{"trigger"},
	)

	// SnapshotWrites tracks snapshot writes by key and result
	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_writes_total",
			Help: "Total number of snapshot writes",
		},
		[]string{"key", "result"},
	)

	// SnapshotDegraded is 1 while a snapshot key runs in memory only
	SnapshotDegraded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshot_degraded",
			Help: "Whether the snapshot key fell back to in-memory operation (1=degraded, 0=persisting)",
		},
		[]string{"key"},
	)
)

// PrometheusMiddleware creates a Gin middleware for automatic metrics collection
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(
			serviceName,
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()

		RequestDuration.WithLabelValues(
			serviceName,
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}
