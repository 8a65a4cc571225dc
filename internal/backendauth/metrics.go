package backendauth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Metrics holds Prometheus metrics for backend authentication.
type Metrics struct {
	decisionsTotal *prometheus.CounterVec
	denialAlerts   prometheus.Counter
	registry       *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = observability.DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backendauth",
			Name:      "decisions_total",
			Help:      "Total number of backend authentication decisions by reason",
		},
		[]string{"reason"},
	)

	m.denialAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backendauth",
			Name:      "denial_alerts_total",
			Help:      "Total number of denial rate alerts raised",
		},
	)

	m.registry.MustRegister(m.decisionsTotal, m.denialAlerts)

	return m
}

// Init pre-initializes every reason label with a zero value so the series
// are visible before the first request.
func (m *Metrics) Init() {
	for _, r := range allReasons {
		m.decisionsTotal.WithLabelValues(r.String())
	}
}

// RecordDecision counts a decision.
func (m *Metrics) RecordDecision(d Decision) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(d.Reason.String()).Inc()
}

// RecordDenialAlert counts a raised denial alert.
func (m *Metrics) RecordDenialAlert() {
	if m == nil {
		return
	}
	m.denialAlerts.Inc()
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister registers the metrics with the given registry.
// AlreadyRegisteredError is ignored so a reload can register again.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.decisionsTotal, m.denialAlerts} {
		if err := registry.Register(c); err != nil {
			if !isAlreadyRegistered(err) {
				panic(err)
			}
		}
	}
}

// isAlreadyRegistered returns true if the error indicates the
// collector was already registered with the registry.
func isAlreadyRegistered(err error) bool {
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}
