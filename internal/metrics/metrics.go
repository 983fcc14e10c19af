package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_service_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	sweepAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_service_sweep_affected_total",
			Help: "Records touched by periodic sweeps",
		},
		[]string{"sweep"},
	)

	sweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_service_sweep_runs_total",
			Help: "Periodic sweep executions",
		},
		[]string{"sweep", "status"},
	)
)

func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordSweep(sweep string, affected int, err error) {
	sweepRuns.WithLabelValues(sweep, outcome(err == nil)).Inc()
	if affected > 0 {
		sweepAffected.WithLabelValues(sweep).Add(float64(affected))
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
