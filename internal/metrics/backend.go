package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bop",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)

	backendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bop",
			Name:      "backend_errors_total",
			Help:      "Total backend search engine transport failures",
		},
		[]string{"op"},
	)
)

// RegisterBackendMetrics registers backend metrics explicitly (no init()).
func RegisterBackendMetrics() {
	prometheus.MustRegister(backendRequestDuration)
	prometheus.MustRegister(backendErrorsTotal)
}

// ObserveBackendRequest records one backend call.
func ObserveBackendRequest(op string, d time.Duration, err error) {
	backendRequestDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		backendErrorsTotal.WithLabelValues(op).Inc()
	}
}
