// Package observability wires OpenTelemetry tracing for the engine. Spans
// are emitted per run, phase, task, and validation gate evaluation; with
// tracing disabled the provider is a no-op and records nothing.
package observability

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/compass-engine/compass/internal/types"
	"github.com/compass-engine/compass/pkg/version"
)

const (
	defaultBatchTimeout = 5 * time.Second
	serviceName         = "compass"
)

// TracingOption is a functional option for configuring tracing
// initialization.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	batchTimeout time.Duration
}

// WithSampler sets a custom sampler for the tracer provider.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithBatchTimeout sets the maximum time between batch exports.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// InitTracing initializes tracing with span export to the given writer.
// When enabled is false it returns a no-op provider that records nothing
// and costs nothing.
//
// The caller owns the returned provider and must call Shutdown on it when
// the process exits, so buffered spans are flushed.
func InitTracing(ctx context.Context, enabled bool, out io.Writer, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	options := &tracingOptions{
		sampler:      sdktrace.AlwaysSample(),
		batchTimeout: defaultBatchTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "creating trace exporter", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "creating trace resource", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(options.batchTimeout)),
	), nil
}
