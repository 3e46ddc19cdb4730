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
		Namespace: "lgatracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lgatracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lgatracker",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Registry metrics
	RegistryRegions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lgatracker",
		Subsystem: "registry",
		Name:      "regions",
		Help:      "Regions in the currently loaded registry",
	})

	RegistryLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "registry",
		Name:      "loads_total",
		Help:      "Registry load attempts by result (ok, fetch_error, superseded)",
	}, []string{"result"})

	RegionsExcluded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "registry",
		Name:      "regions_excluded_total",
		Help:      "Boundary relations excluded because no closed ring could be assembled",
	})

	WaysDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "registry",
		Name:      "ways_dropped_total",
		Help:      "Member ways dropped during ring stitching",
	})

	BoundaryFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lgatracker",
		Subsystem: "boundary",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of boundary-data provider calls",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// Visit metrics
	VisitedRegions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lgatracker",
		Subsystem: "visits",
		Name:      "visited_regions",
		Help:      "Size of the visited-region set",
	})

	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "visits",
		Name:      "toggles_total",
		Help:      "Visit toggles by resulting state",
	}, []string{"state"})

	PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "visits",
		Name:      "persistence_errors_total",
		Help:      "Visited-set persistence failures by operation",
	}, []string{"op"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lgatracker",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lgatracker",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
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
