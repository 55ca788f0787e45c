// Package tracing wires one OpenTelemetry span per compile pipeline stage,
// exported to stdout. Grounded on the reference tracing package's
// Config/TracerProvider shape, trimmed to the stdout exporter only: this
// CLI assumes no OTLP collector is listening anywhere, so the network
// exporter the reference package also supports was not carried forward
// (see DESIGN.md).
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the tracer provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
}

// DefaultConfig returns the compiler's tracing defaults (disabled; a CLI
// invocation is short-lived enough that tracing is opt-in via the config
// file's tracing_enabled key).
func DefaultConfig() Config {
	return Config{ServiceName: "gembiler", ServiceVersion: "0.1.0", Enabled: false}
}

// Provider wraps an OpenTelemetry TracerProvider.
type Provider struct {
	sdk *sdktrace.TracerProvider
}

// Init creates a Provider. When cfg.Enabled is false it returns a no-op
// provider so call sites never need an "if tracing" branch.
func Init(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{sdk: sdktrace.NewTracerProvider()}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("tracing: create stdout exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(sdk)

	return &Provider{sdk: sdk}, nil
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// Tracer returns the named tracer for this provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.sdk == nil {
		return otel.Tracer(name)
	}
	return p.sdk.Tracer(name)
}

// StartStage starts a span named for one pipeline stage.
func StartStage(ctx context.Context, tracer trace.Tracer, stage string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compile."+stage)
}

// EndStage closes span, recording err on it if non-nil.
func EndStage(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
