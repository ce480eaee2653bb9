package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ProviderConfig configures span export to an OTLP collector.
type ProviderConfig struct {
	ServiceName string
	// Endpoint is the collector address, e.g. "localhost:4317" for grpc or
	// "localhost:4318" for http. Empty disables export.
	Endpoint    string
	Protocol    string
	Insecure    bool
	Timeout     time.Duration
	SampleRatio float64
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Install builds an OTLP-backed tracer provider and makes it the tracer used
// by StartSpan. With no endpoint it installs nothing.
func Install(ctx context.Context, config ProviderConfig) (ShutdownFunc, error) {
	if config.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := NewOTLPExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	ratio := config.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", config.ServiceName))),
	)
	otel.SetTracerProvider(tp)
	SetTracer(tp.Tracer(config.ServiceName))

	return func(ctx context.Context) error {
		SetTracer(nil)
		return tp.Shutdown(ctx)
	}, nil
}

// NewOTLPExporter creates a grpc or http OTLP trace exporter.
func NewOTLPExporter(ctx context.Context, config ProviderConfig) (*otlptrace.Exporter, error) {
	switch config.Protocol {
	case "grpc", "":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}
		if config.Timeout > 0 {
			opts = append(opts, otlptracegrpc.WithTimeout(config.Timeout))
		}
		if config.Insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Endpoint)}
		if config.Timeout > 0 {
			opts = append(opts, otlptracehttp.WithTimeout(config.Timeout))
		}
		if config.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unsupported OTLP protocol: %s (use 'grpc' or 'http')", config.Protocol)
}
