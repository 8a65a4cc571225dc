package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// TracerName is the instrumentation name of inbound spans.
const TracerName = "github.com/vyrodovalexey/avaguard/internal/middleware"

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	// Propagators defaults to the global propagator.
	Propagators propagation.TextMapPropagator
	// SkipOperational leaves the "/__" routes untraced.
	SkipOperational bool
}

// Tracing returns a middleware that starts a server span per request using
// the global tracer provider.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(TracingConfig{SkipOperational: true})
}

// TracingWithConfig returns a tracing middleware with custom configuration.
// The span continues any trace the caller propagated, and its trace ID is
// added to the request context for log correlation.
func TracingWithConfig(config TracingConfig) gin.HandlerFunc {
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(TracerName)

	extract := observability.ExtractTraceContext
	if config.Propagators != nil {
		extract = func(ctx context.Context, h http.Header) context.Context {
			return config.Propagators.Extract(ctx, propagation.HeaderCarrier(h))
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if config.SkipOperational && strings.HasPrefix(path, "/__") {
			c.Next()
			return
		}

		ctx := extract(c.Request.Context(), c.Request.Header)
		ctx, span := tracer.Start(ctx, "HTTP "+c.Request.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("url.path", path),
				attribute.String("user_agent.original", c.Request.UserAgent()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			ctx = observability.ContextWithTraceID(ctx, sc.TraceID().String())
		}
		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.GetString(RouteKey)
		if route == "" {
			route = c.FullPath()
		}
		if route != "" {
			span.SetName(c.Request.Method + " " + route)
			span.SetAttributes(attribute.String("http.route", route))
		}

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
