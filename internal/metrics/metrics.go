package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every collector of the client so it can be exported without
	// the Go runtime collectors of the default registry.
	Registry = prometheus.NewRegistry()

	// OperationsTotal counts registry operations by outcome.
	OperationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "center_operations_total",
			Help: "Registry operations by registry, operation and result",
		},
		[]string{"registry", "operation", "result"},
	)

	// OperationDuration tracks the latency of registry operations.
	OperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "center_operation_duration_seconds",
			Help: "Duration of registry operations in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.025, // 25ms
				0.1,   // 100ms
				0.5,   // 500ms
				2.5,   // 2.5s
			},
		},
		[]string{"registry", "operation"},
	)
)

// ObserveOperation records one registry operation. An empty kind means success.
func ObserveOperation(registry, operation, kind string, duration time.Duration) {
	result := kind
	if result == "" {
		result = "success"
	}
	OperationsTotal.WithLabelValues(registry, operation, result).Inc()
	OperationDuration.WithLabelValues(registry, operation).Observe(duration.Seconds())
}

// WriteTextfile writes the current metrics in the node exporter textfile format.
// An empty path disables the export.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
