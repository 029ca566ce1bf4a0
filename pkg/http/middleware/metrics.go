package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "IntelliMarket/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	size     *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	reqMetrics  *httpMetrics
)

// Analyses can run for minutes, hence the long tail.
var latencyBuckets = []float64{0.01, 0.05, 0.25, 1, 5, 15, 30, 60, 120, 300}

func loadHTTPMetrics() *httpMetrics {
	metricsOnce.Do(func() {
		reqMetrics = &httpMetrics{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "intellimarket_http_requests_total",
				Help: "HTTP requests served, by route and status class.",
			}, []string{"route", "method", "class"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "intellimarket_http_request_seconds",
				Help:    "HTTP request latency.",
				Buckets: latencyBuckets,
			}, []string{"route", "method"}),
			inFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "intellimarket_http_in_flight",
				Help: "Requests currently being served.",
			}),
			size: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "intellimarket_http_response_bytes",
				Help:    "Response body size.",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			}, []string{"route"}),
		}
	})
	return reqMetrics
}

// Metrics records each request under its route template rather than the raw
// path. Server errors are logged, and so are requests slower than slow.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	m := loadHTTPMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			code := c.Response().Status

			m.requests.WithLabelValues(route, method, strconv.Itoa(code/100)+"xx").Inc()
			m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
			m.size.WithLabelValues(route).Observe(float64(c.Response().Size))

			switch {
			case l == nil:
			case code >= 500:
				l.Error("request failed", applogger.String("route", route), applogger.Int("status", code), applogger.Duration("duration_ms", elapsed))
			case slow > 0 && elapsed >= slow:
				l.Warn("slow request", applogger.String("route", route), applogger.Int("status", code), applogger.Duration("duration_ms", elapsed))
			}
			return nil
		}
	}
}
