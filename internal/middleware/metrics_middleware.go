package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// export payloads run from a few hundred bytes to several MiB
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 5 << 10, 25 << 10, 100 << 10,
				500 << 10, 1 << 20, 5 << 20, 20 << 20,
			},
		},
		[]string{"method", "path"},
	)

	rateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_rejections_total",
			Help: "Requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpLatency, httpInflight, httpResponseSize, rateLimitRejections)
}

// Metrics instruments requests. The path label is the registered route, or
// the raw path when nothing matched.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequests.WithLabelValues(method, path, status).Inc()
		httpLatency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
