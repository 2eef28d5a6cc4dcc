package obs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Метрики исходящих вызовов к бэкенду TrovKa.
var (
	apiInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trovka_api_in_flight_requests",
		Help: "In-flight backend API requests.",
	})

	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trovka_api_requests_total",
			Help: "Total number of backend API requests.",
		},
		[]string{"operation", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trovka_api_request_duration_seconds",
			Help:    "Backend API request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
)

// Регистрация метрик в default-регистре.
func Init() {
	prometheus.MustRegister(apiInFlight, apiRequestsTotal, apiRequestDuration)
}

// RequestStarted marks an outbound call as in flight.
func RequestStarted() {
	apiInFlight.Inc()
}

// RequestFinished records one completed backend call. A zero status means the
// request never produced an HTTP response (transport failure).
func RequestFinished(operation string, status int, started time.Time) {
	label := StatusLabel(status)
	apiRequestDuration.WithLabelValues(operation, label).Observe(time.Since(started).Seconds())
	apiRequestsTotal.WithLabelValues(operation, label).Inc()
	apiInFlight.Dec()
}

// StatusLabel maps an HTTP status code to a metric label value.
func StatusLabel(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}
