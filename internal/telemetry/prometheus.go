package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the collectors served on /metrics.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "artel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "artel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	RealtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "artel",
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Open realtime websocket connections.",
		},
	)

	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "artel",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Change events received from the pubsub channel.",
		},
		[]string{"table"},
	)

	RealtimeInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "artel",
			Subsystem: "realtime",
			Name:      "invalidations_total",
			Help:      "Invalidate frames written after debouncing.",
		},
	)

	PushSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "artel",
			Subsystem: "push",
			Name:      "sends_total",
			Help:      "Push deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	ReconcileDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "artel",
			Subsystem: "reconcile",
			Name:      "deleted_responses_total",
			Help:      "Stale project responses removed by reconciliation.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		RealtimeConnections,
		RealtimeEvents,
		RealtimeInvalidations,
		PushSends,
		ReconcileDeleted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler serves the registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// PrometheusMiddleware records request count and latency by matched route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
