package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func keepTracingGlobals(t *testing.T) {
	t.Helper()
	prevTracer, prevProvider, prevProp := Tracer, otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		Tracer = prevTracer
		if otel.GetTracerProvider() != prevProvider {
			otel.SetTracerProvider(prevProvider)
		}
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestInitTracing(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		keepTracingGlobals(t)
		shutdown, err := InitTracing(ctx, TracingConfig{ServiceName: "rwid-test", Exporter: "stdout"})
		require.NoError(t, err)
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("none exporter", func(t *testing.T) {
		keepTracingGlobals(t)
		shutdown, err := InitTracing(ctx, TracingConfig{ServiceName: "rwid-test", Enabled: true, Exporter: "None"})
		require.NoError(t, err)
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("unknown exporter", func(t *testing.T) {
		keepTracingGlobals(t)
		_, err := InitTracing(ctx, TracingConfig{ServiceName: "rwid-test", Enabled: true, Exporter: "jaeger"})
		assert.EqualError(t, err, `unknown TRACING_EXPORTER "jaeger"`)
	})

	t.Run("otlp", func(t *testing.T) {
		keepTracingGlobals(t)
		shutdown, err := InitTracing(ctx, TracingConfig{
			ServiceName:    "rwid-test",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			Enabled:        true,
			Exporter:       "otlp",
			OTLPEndpoint:   "localhost:4318",
			SamplerRatio:   1,
		})
		require.NoError(t, err, "resource and exporter build without a collector")
		assert.NotNil(t, shutdown)
		_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
		assert.True(t, ok)
	})

	t.Run("stdout", func(t *testing.T) {
		keepTracingGlobals(t)
		shutdown, err := InitTracing(ctx, TracingConfig{
			ServiceName:  "rwid-test",
			Environment:  "test",
			Enabled:      true,
			Exporter:     "stdout",
			SamplerRatio: 7,
		})
		require.NoError(t, err)
		_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
		assert.True(t, ok, "sdk provider installed globally")
		assert.NoError(t, shutdown(ctx))
	})
}

func TestSpanHelpers(t *testing.T) {
	keepTracingGlobals(t)
	rec := tracetest.NewSpanRecorder()
	Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)).Tracer("test")

	ctx := context.Background()
	_, span := StartDBSpan(ctx, "toggle_like", "reactions")
	EndSpan(span, nil)
	_, span = StartRedisSpan(ctx, "GET", "feed")
	EndSpan(span, errors.New("connection refused"))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	db := spans[0]
	assert.Equal(t, "db reactions.toggle_like", db.Name())
	assert.Equal(t, trace.SpanKindClient, db.SpanKind())
	assert.Contains(t, db.Attributes(), attribute.String("db.collection.name", "reactions"))
	assert.Equal(t, codes.Unset, db.Status().Code)

	redisSpan := spans[1]
	assert.Equal(t, "redis GET", redisSpan.Name())
	assert.Contains(t, redisSpan.Attributes(), attribute.String("rwid.cache.family", "feed"))
	assert.Equal(t, codes.Error, redisSpan.Status().Code)
	assert.Equal(t, "connection refused", redisSpan.Status().Description)
	require.Len(t, redisSpan.Events(), 1, "error recorded as an event")
}
