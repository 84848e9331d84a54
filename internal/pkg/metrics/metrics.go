package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "encinapp",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "encinapp",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Backend REST calls
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Total calls made to the EncinApp REST backend",
	}, []string{"operation", "outcome"})

	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "encinapp",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the REST backend",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"operation"})

	// Reads that degraded to an empty collection
	ReadFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "core",
		Name:      "read_fallbacks_total",
		Help:      "Reads that failed and were replaced by an empty collection",
	}, []string{"resource"})

	// Writes that failed and were surfaced to the user
	WriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "core",
		Name:      "write_failures_total",
		Help:      "Write actions that failed and were reported to the user",
	}, []string{"action"})

	// Map controller
	MapRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "map",
		Name:      "refreshes_total",
		Help:      "Completed map refreshes by resulting state",
	}, []string{"state"})

	MapStaleDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "map",
		Name:      "stale_refreshes_discarded_total",
		Help:      "Refresh results dropped because a newer refresh had started",
	})

	MapRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "encinapp",
		Subsystem: "map",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of the fan-out/fan-in map refresh",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Location
	LocationFixes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "location",
		Name:      "fixes_total",
		Help:      "Device location fixes received",
	}, []string{"source"})

	LocationDenied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "location",
		Name:      "permission_denied_total",
		Help:      "Location lookups refused because permission was denied",
	})

	GeocodeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "location",
		Name:      "geocode_fallbacks_total",
		Help:      "Reverse geocoding lookups answered with the fallback address",
	})

	// Alert watcher
	WatcherPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "watcher",
		Name:      "polls_total",
		Help:      "Active alert polls by outcome",
	}, []string{"outcome"})

	WatcherEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "watcher",
		Name:      "events_published_total",
		Help:      "Alert changes published by the watcher",
	}, []string{"kind"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "encinapp",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "encinapp",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "encinapp",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "encinapp",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "encinapp",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// ObserveBackend records one backend call.
func ObserveBackend(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BackendRequests.WithLabelValues(operation, outcome).Inc()
	BackendDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// PoolStat is the subset of pgxpool.Stat the gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool statistics into the gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}
