package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index lifecycle Prometheus metrics.
var (
	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_operations_total",
			Help:      "Index lifecycle operations by outcome",
		},
		[]string{"backend", "action", "status"},
	)

	IndexOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_operation_duration_seconds",
			Help:      "Backend index operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend", "operation"},
	)

	IndexInSync = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_in_sync",
			Help:      "1 when the live index matches the desired definition, 0 otherwise",
		},
		[]string{"index"},
	)
)

var indexMetricsRegistered bool

// RegisterIndexMetrics registers the index lifecycle metrics. Must be called once from main.
func RegisterIndexMetrics() {
	if indexMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexOperationsTotal)
	prometheus.MustRegister(IndexOperationDuration)
	prometheus.MustRegister(IndexInSync)
	indexMetricsRegistered = true
}
