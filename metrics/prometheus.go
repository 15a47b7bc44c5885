package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Направление запроса: исходящие к vendor API и входящие на /metrics, /status.
const (
	Outbound = "outbound"
	Inbound  = "inbound"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"direction", "method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"direction", "method", "endpoint", "status"},
	)
	importPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vendor_import_status_polls_total",
			Help: "Import status queries issued by the watcher.",
		},
	)
	importPollErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vendor_import_status_poll_errors_total",
			Help: "Import status queries that failed and were retried on the next tick.",
		},
	)
	importWatchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_import_watch_outcomes_total",
			Help: "How import watches ended.",
		},
		[]string{"outcome"},
	)
	importWatchActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vendor_import_watch_active",
			Help: "1 while an import status loop is running.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(importPollsTotal)
	prometheus.MustRegister(importPollErrorsTotal)
	prometheus.MustRegister(importWatchOutcomes)
	prometheus.MustRegister(importWatchActive)
}

// RecordRequest записывает метрики для HTTP-запроса.
func RecordRequest(direction, method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(direction, method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(direction, method, endpoint, status).Observe(duration.Seconds())
}

// classifyStatus классифицирует HTTP-статус код в строку. 0 means the request never got a response.
func classifyStatus(statusCode int) string {
	switch {
	case statusCode == 0:
		return "error"
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
