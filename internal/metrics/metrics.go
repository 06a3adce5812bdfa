package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var validatedLayers atomic.Int64

var (
	LayersValidatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "layers_validated_total",
		Help: "The total number of layers that passed validation",
	})

	ValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "layer_validation_errors_total",
		Help: "Total number of layer validation failures",
	}, []string{"kind", "error_class"})

	ValidationDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "layer_validation_duration_seconds",
		Help: "Duration of single-layer validation",
	})

	KernelCompileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_compile_total",
		Help: "Kernel specialization outcomes",
	}, []string{"impl", "outcome"})

	KernelCompileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kernel_compile_duration_seconds",
		Help:    "Histogram of kernel configuration and emission times",
		Buckets: prometheus.DefBuckets,
	}, []string{"impl"})

	NetworksLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "networks_loaded_total",
		Help: "Networks fully validated and accepted",
	})

	NetworksRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "networks_rejected_total",
		Help: "Networks rejected during load due to an invalid layer",
	})
)

// RecordLayerValidated bumps both the prometheus counter and the cheap
// in-process tally used by tests and status reporting.
func RecordLayerValidated(d time.Duration) {
	validatedLayers.Add(1)
	LayersValidatedTotal.Inc()
	ValidationDuration.Observe(d.Seconds())
}

func RecordValidationError(kind, class string) {
	ValidationErrors.WithLabelValues(kind, class).Inc()
}

func RecordKernelCompile(impl, outcome string, d time.Duration) {
	KernelCompileTotal.WithLabelValues(impl, outcome).Inc()
	KernelCompileDuration.WithLabelValues(impl).Observe(d.Seconds())
}

func ValidatedLayers() int64 {
	return validatedLayers.Load()
}
