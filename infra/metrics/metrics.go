package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts connector operations by processor, operation and outcome status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_operations_total",
			Help: "Total number of processor connector operations",
		},
		[]string{"processor", "operation", "status"},
	)

	// OperationDuration tracks the round trip to the processor.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connector_operation_duration_seconds",
			Help:    "Duration of processor connector operations in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"processor", "operation"},
	)
)

// ObserveOperation records the outcome and latency of one connector operation.
func ObserveOperation(processor, operation, status string, elapsed time.Duration) {
	OperationsTotal.WithLabelValues(processor, operation, status).Inc()
	OperationDuration.WithLabelValues(processor, operation).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
