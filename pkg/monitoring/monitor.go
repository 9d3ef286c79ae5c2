package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 上游 LMS API 调用
	UpstreamCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of calls to the LMS REST API",
		},
		[]string{"method", "status"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of calls to the LMS REST API",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method"},
	)

	ShellConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shell_connections",
			Help: "Open live layout connections",
		},
	)

	ShellMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shell_messages_total",
			Help: "Messages exchanged over the live layout channel",
		},
		[]string{"type", "direction"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(UpstreamCounter)
		prometheus.MustRegister(UpstreamDuration)
		prometheus.MustRegister(ShellConnections)
		prometheus.MustRegister(ShellMessageCounter)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

// ObserveUpstream 记录一次上游调用，status 为 0 表示网络错误
func ObserveUpstream(method string, status int, elapsed time.Duration) {
	UpstreamCounter.WithLabelValues(method, strconv.Itoa(status)).Inc()
	UpstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
