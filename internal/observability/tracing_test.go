package observability

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{ServiceName: "test"})
	require.NoError(t, err)

	_, span := tracer.Provider().Tracer("test").Start(context.Background(), "op")
	span.End()

	assert.NotNil(t, tracer.Provider())
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_EnabledWithoutExporter(t *testing.T) {
	tracer, err := NewTracer(TracerConfig{
		ServiceName:    "test",
		ServiceVersion: "1.2.3",
		Environment:    "production",
		Enabled:        true,
		SamplingRate:   1.0,
	})
	require.NoError(t, err)

	assert.Same(t, tracer.provider, tracer.Provider())

	ctx, span := tracer.Provider().Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	require.NotEmpty(t, header.Get("traceparent"))

	remote := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), header))
	assert.True(t, remote.IsRemote())
	assert.Equal(t, span.SpanContext().TraceID(), remote.TraceID())

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rate float64
		want string
	}{
		{name: "always", rate: 1.0, want: "root:AlwaysOnSampler"},
		{name: "never", rate: 0, want: "root:AlwaysOffSampler"},
		{name: "ratio", rate: 0.5, want: "root:TraceIDRatioBased{0.5}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			desc := createSampler(tt.rate).Description()
			assert.True(t, strings.HasPrefix(desc, "ParentBased{"), desc)
			assert.Contains(t, desc, tt.want)
		})
	}
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := newResource(TracerConfig{ServiceName: "avaguard", ServiceVersion: "1.2.3", Environment: "staging"})
	require.NoError(t, err)

	values := make(map[string]string)
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "avaguard", values["service.name"])
	assert.Equal(t, "1.2.3", values["service.version"])
	assert.Equal(t, "staging", values["deployment.environment.name"])
}
