package classifier

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Metrics holds Prometheus metrics for URL classification.
type Metrics struct {
	unclassifiedTotal prometheus.Counter
	hookPanicsTotal   prometheus.Counter
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = observability.DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.unclassifiedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "unclassified_total",
			Help:      "Total number of outbound URLs that matched no service",
		},
	)

	m.hookPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "hook_panics_total",
			Help:      "Total number of panics recovered from the unmatched URL hook",
		},
	)

	m.registry.MustRegister(m.unclassifiedTotal, m.hookPanicsTotal)

	return m
}

// RecordUnclassified counts a URL that matched no service.
func (m *Metrics) RecordUnclassified() {
	if m == nil {
		return
	}
	m.unclassifiedTotal.Inc()
}

// RecordHookPanic counts a recovered hook panic.
func (m *Metrics) RecordHookPanic() {
	if m == nil {
		return
	}
	m.hookPanicsTotal.Inc()
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister registers the metrics with the given registry.
// AlreadyRegisteredError is ignored.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.unclassifiedTotal, m.hookPanicsTotal} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
