package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge
	httpOnce            sync.Once
)

func initHTTPMetrics() {
	httpOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfusion_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "class"},
		)
		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalfusion_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		)
		httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "signalfusion_http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		})
	})
}

// Metrics records request count, latency and in-flight gauge by route
// template.
func Metrics() echo.MiddlewareFunc {
	initHTTPMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			err := next(c)

			route, method := routeOf(c), c.Request().Method
			httpRequestsTotal.WithLabelValues(route, method, statusClass(c.Response().Status)).Inc()
			httpRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
