package outbound

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avaguard/internal/classifier"
)

const tracerName = "github.com/vyrodovalexey/avaguard/internal/outbound"

// statusError labels calls that failed before a response was received.
const statusError = "error"

// Transport is an http.RoundTripper that classifies, traces and measures
// each request before delegating to a base transport.
type Transport struct {
	base       http.RoundTripper
	classifier *classifier.Classifier
	metrics    *Metrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// Option is a functional option for the transport.
type Option func(*Transport)

// WithBase sets the wrapped transport. The default is http.DefaultTransport.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		if base != nil {
			t.base = base
		}
	}
}

// WithMetrics sets the outbound metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(t *Transport) {
		t.metrics = metrics
	}
}

// WithTracerProvider sets the tracer provider. The default is the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Transport) {
		if tp != nil {
			t.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithPropagator sets the propagator used to inject trace context into
// outgoing headers. The default propagates W3C trace context and baggage.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Transport) {
		if p != nil {
			t.propagator = p
		}
	}
}

// NewTransport creates an instrumented transport.
func NewTransport(c *classifier.Classifier, opts ...Option) *Transport {
	t := &Transport{
		base:       http.DefaultTransport,
		classifier: c,
		tracer:     otel.Tracer(tracerName),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	service, known := t.classify(req)

	ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()
	if known {
		span.SetAttributes(attribute.String("peer.service", service))
	}

	out := req.Clone(ctx)
	t.propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(out)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if known {
			t.metrics.RecordRequest(service, req.Method, statusError, duration)
		}
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	if known {
		t.metrics.RecordRequest(service, req.Method, strconv.Itoa(resp.StatusCode), duration)
	}

	return resp, nil
}

func (t *Transport) classify(req *http.Request) (string, bool) {
	if t.classifier == nil || req.URL == nil {
		return "", false
	}
	return t.classifier.Classify(req.URL.String())
}

// Ensure Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)
