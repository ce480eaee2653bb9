package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	SetTracer(tp.Tracer("test"))
	t.Cleanup(func() {
		SetTracer(nil)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpanWithoutTracer(t *testing.T) {
	SetTracer(nil)
	ctx, span := StartSpan(context.Background(), "Compiler.Compile")
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, GetTraceID(ctx))

	RecordError(span, errors.New("ignored"))
	span.End()
}

func TestStartSpanRecordsErrors(t *testing.T) {
	recorder := recordSpans(t)

	ctx, span := StartSpan(context.Background(), "ElementRepository.All", attribute.String("kind", "entry"))
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, nil)
	RecordError(span, errors.New("connection refused"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "ElementRepository.All", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "connection refused", ended[0].Status().Description)
	assert.Contains(t, ended[0].Attributes(), attribute.String("kind", "entry"))
	assert.Len(t, ended[0].Events(), 1)
}

func TestInstallWithoutEndpoint(t *testing.T) {
	shutdown, err := Install(context.Background(), ProviderConfig{ServiceName: "fern"})
	require.NoError(t, err)
	assert.Nil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewOTLPExporterRejectsUnknownProtocol(t *testing.T) {
	_, err := NewOTLPExporter(context.Background(), ProviderConfig{Endpoint: "localhost:4317", Protocol: "udp"})
	assert.ErrorContains(t, err, "unsupported OTLP protocol")
}
