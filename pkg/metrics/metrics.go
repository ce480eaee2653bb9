// Package metrics provides Prometheus metrics for element query compilation and execution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompilesTotal tracks compilations by element kind and outcome (ok, aborted, error)
	CompilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "compiler",
			Name:      "compiles_total",
			Help:      "Total number of element query compilations by outcome",
		},
		[]string{"kind", "outcome"},
	)

	// CompileDuration tracks compile time in seconds
	CompileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "compiler",
			Name:      "compile_duration_seconds",
			Help:      "Duration of element query compilation in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"kind"},
	)

	// ExecutionsTotal tracks database round trips by entry point
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "repository",
			Name:      "executions_total",
			Help:      "Total number of element query executions by entry point and status",
		},
		[]string{"kind", "method", "status"},
	)

	// ResultCacheLookups tracks result cache hits and misses
	ResultCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "result_cache",
			Name:      "lookups_total",
			Help:      "Total number of result cache lookups by result",
		},
		[]string{"result"},
	)
)
