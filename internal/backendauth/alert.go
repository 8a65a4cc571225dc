package backendauth

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// DefaultAlertInterval is the minimum time between two denial alerts.
const DefaultAlertInterval = time.Minute

// AlertConfig configures a DenialAlerter.
type AlertConfig struct {
	// Rate is the sustained number of denials per second considered normal.
	Rate float64

	// Burst is the number of denials tolerated above Rate.
	Burst int

	// Interval throttles the alert itself. Zero means DefaultAlertInterval.
	Interval time.Duration
}

// DenialAlerter raises a throttled warning when denials arrive faster than
// the configured rate. It is safe for concurrent use.
type DenialAlerter struct {
	budget   *rate.Limiter
	throttle *rate.Limiter
	cfg      AlertConfig
	logger   observability.Logger
	metrics  *Metrics
}

// NewDenialAlerter creates a denial alerter.
func NewDenialAlerter(cfg AlertConfig, logger observability.Logger, metrics *Metrics) *DenialAlerter {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultAlertInterval
	}

	return &DenialAlerter{
		budget:   rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		throttle: rate.NewLimiter(rate.Every(cfg.Interval), 1),
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// RecordDenial accounts one denial and reports whether an alert was raised.
func (a *DenialAlerter) RecordDenial() bool {
	if a == nil || a.budget.Allow() {
		return false
	}
	if !a.throttle.Allow() {
		return false
	}

	a.logger.Warn("backend authentication denial rate exceeded",
		observability.Float64("rate", a.cfg.Rate),
		observability.Int("burst", a.cfg.Burst),
	)
	a.metrics.RecordDenialAlert()
	return true
}
