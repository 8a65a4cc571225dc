// Package observability provides logging, metrics, and tracing
// functionality for the gateway.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Warn("backend authentication disabled",
//	    observability.String("environment", "development"),
//	)
//
// # Metrics
//
// Metrics owns the Prometheus registry that backs the /metrics endpoint.
// Component metrics keep their own registry for tests and are registered
// here at startup.
//
// # Tracing
//
// Tracer wraps an OpenTelemetry tracer provider with OTLP gRPC export.
// When disabled the global provider stays a no-op.
package observability
