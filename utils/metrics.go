package utils

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
			Name: "studioz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studioz_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// UpstreamCalls counts calls to the upstream Studioz API by operation and outcome.
	UpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioz_upstream_calls_total",
			Help: "Calls to the upstream Studioz API",
		},
		[]string{"operation", "outcome"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "studioz_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)

	// CartMutations counts cart mutations by kind and outcome.
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioz_cart_mutations_total",
			Help: "Cart mutations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// IntentsSwept counts stale reservation intents settled by the sweeper.
	IntentsSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioz_intents_swept_total",
			Help: "Stale reservation intents settled by the sweeper",
		},
		[]string{"kind", "outcome"},
	)

	// ClientReloads counts reload decisions for stale deployed assets.
	ClientReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioz_client_error_actions_total",
			Help: "Actions returned for client error reports",
		},
		[]string{"action"},
	)
)

// PrometheusMiddleware records request counts and latency per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
