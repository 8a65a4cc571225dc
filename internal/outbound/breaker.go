package outbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// ErrCircuitOpen is returned while a breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// errServerStatus marks a 5xx answer as a failure inside the breaker. It
// never leaves RoundTrip.
var errServerStatus = errors.New("upstream server error")

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Name string
	// Threshold is the minimum number of requests in a window before the
	// failure ratio can open the breaker.
	Threshold int
	// Timeout is how long the breaker stays open, and the counting window
	// while closed.
	Timeout time.Duration
}

// Breaker is an http.RoundTripper that stops calling a failing service.
// Transport errors and 5xx answers count as failures. A request whose
// context is already done never reaches the breaker; one canceled in
// flight is counted as a success, so a caller hanging up cannot trip it.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	next    http.RoundTripper
	logger  observability.Logger
	metrics *Metrics
}

// BreakerOption is a functional option for the breaker.
type BreakerOption func(*Breaker)

// WithBreakerLogger sets the logger.
func WithBreakerLogger(logger observability.Logger) BreakerOption {
	return func(b *Breaker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBreakerMetrics sets the metrics recording state transitions.
func WithBreakerMetrics(metrics *Metrics) BreakerOption {
	return func(b *Breaker) {
		b.metrics = metrics
	}
}

// NewBreaker wraps next in a circuit breaker.
func NewBreaker(next http.RoundTripper, cfg BreakerConfig, opts ...BreakerOption) *Breaker {
	if next == nil {
		next = http.DefaultTransport
	}
	b := &Breaker{
		next:   next,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	threshold := safeUint32(cfg.Threshold)
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Timeout,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			b.metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
	return b
}

// RoundTrip implements http.RoundTripper.
func (b *Breaker) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	result, err := b.cb.Execute(func() (any, error) {
		resp, err := b.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, b.cb.Name())
	case errors.Is(err, errServerStatus):
		return result.(*http.Response), nil
	case err != nil:
		return nil, err
	}
	return result.(*http.Response), nil
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// Ensure Breaker implements http.RoundTripper.
var _ http.RoundTripper = (*Breaker)(nil)
