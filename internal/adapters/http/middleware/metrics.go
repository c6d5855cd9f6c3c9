package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coinledger",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Business metrics, recorded by the movement handlers.
var (
	MovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinledger",
			Subsystem: "ledger",
			Name:      "movements_total",
			Help:      "Total number of value movements by type and outcome",
		},
		[]string{"type", "outcome", "asset"},
	)

	IdempotencyReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinledger",
			Subsystem: "ledger",
			Name:      "idempotency_replays_total",
			Help:      "Requests answered from a previously completed transaction",
		},
		[]string{"type"},
	)
)

// Metrics records request count, latency and in-flight gauge per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordMovement records one movement outcome.
func RecordMovement(movementType, outcome, asset string) {
	MovementsTotal.WithLabelValues(movementType, outcome, asset).Inc()
}

// RecordReplay records a request answered from a stored transaction.
func RecordReplay(movementType string) {
	IdempotencyReplaysTotal.WithLabelValues(movementType).Inc()
}
