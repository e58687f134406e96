package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "busstate"

// Soak operation labels.
const (
	OpSagaSave     = "saga_save"
	OpSagaGet      = "saga_get"
	OpSagaComplete = "saga_complete"
	OpFormat       = "format"
	OpDedupMark    = "dedup_mark"
	OpSubscribe    = "subscribe"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	SoakOperations *prometheus.CounterVec
	SoakDuplicates prometheus.Counter
	SoakRuns       prometheus.Counter
	SoakDuration   prometheus.Histogram
	ConfigReloads  *prometheus.CounterVec
}

// NewRegistry creates a registry with the Go runtime and process
// collectors and the busstate counters registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		SoakOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soak",
			Name:      "operations_total",
			Help:      "Container operations performed by the soak driver.",
		}, []string{"op"}),
		SoakDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soak",
			Name:      "duplicates_total",
			Help:      "Redeliveries detected by the dedup window during soak runs.",
		}),
		SoakRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "soak",
			Name:      "runs_total",
			Help:      "Completed soak runs.",
		}),
		SoakDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "soak",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a soak run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		ConfigReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "reloads_total",
			Help:      "Configuration reloads by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		r.SoakOperations,
		r.SoakDuplicates,
		r.SoakRuns,
		r.SoakDuration,
		r.ConfigReloads,
	)
	return r
}

// Register adds a collector, typically a ContainerCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// IncOp counts one soak operation.
func (r *Registry) IncOp(op string) {
	r.SoakOperations.WithLabelValues(op).Inc()
}

// IncDuplicate counts one detected redelivery.
func (r *Registry) IncDuplicate() {
	r.SoakDuplicates.Inc()
}

// ObserveRun records a finished soak run.
func (r *Registry) ObserveRun(d time.Duration) {
	r.SoakRuns.Inc()
	r.SoakDuration.Observe(d.Seconds())
}

// ObserveReload records a configuration reload attempt.
func (r *Registry) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.ConfigReloads.WithLabelValues(result).Inc()
}
