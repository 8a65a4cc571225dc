package secrets

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Metrics holds Prometheus metrics for credential fetches.
type Metrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	keysLoaded    *prometheus.GaugeVec
	registry      *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = observability.DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "fetches_total",
			Help:      "Total number of credential set fetches",
		},
		[]string{"provider", "result"},
	)

	m.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of credential set fetches in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	m.keysLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "keys_loaded",
			Help:      "Number of keys in the last successfully fetched credential set",
		},
		[]string{"provider"},
	)

	m.registry.MustRegister(m.fetchesTotal, m.fetchDuration, m.keysLoaded)

	return m
}

// RecordFetch records the outcome of a fetch.
func (m *Metrics) RecordFetch(provider ProviderType, keys int, d time.Duration, err error) {
	if m == nil {
		return
	}
	p := string(provider)
	m.fetchDuration.WithLabelValues(p).Observe(d.Seconds())
	if err != nil {
		m.fetchesTotal.WithLabelValues(p, "error").Inc()
		return
	}
	m.fetchesTotal.WithLabelValues(p, "success").Inc()
	m.keysLoaded.WithLabelValues(p).Set(float64(keys))
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister registers the metrics with the given registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.fetchesTotal, m.fetchDuration, m.keysLoaded} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
