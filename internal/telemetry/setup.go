package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope for all meters and tracers.
const ScopeName = "github.com/badbboy/mcp-mermaid"

// OTLP/HTTP signal paths appended to Config.OTLPEndpoint.
const (
	TracesPath  = "/v1/traces"
	MetricsPath = "/v1/metrics"
)

// Config selects where telemetry goes.
type Config struct {
	// OTLPEndpoint is the OTLP/HTTP base URL, e.g. "http://localhost:4318".
	// Traces go to TracesPath and metrics to MetricsPath under it. Empty
	// disables export.
	OTLPEndpoint string

	ServiceName    string
	ServiceVersion string
}

// Providers holds the meter and tracer handed to NewObserver.
type Providers struct {
	Meter  metric.Meter
	Tracer trace.Tracer

	shutdown []func(context.Context) error
}

// Setup builds the providers for cfg. Without an OTLP endpoint the global
// (by default no-op) providers are used.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	p := &Providers{
		Meter:  otel.GetMeterProvider().Meter(ScopeName),
		Tracer: otel.GetTracerProvider().Tracer(ScopeName),
	}
	if cfg.OTLPEndpoint == "" {
		return p, nil
	}
	base := strings.TrimRight(cfg.OTLPEndpoint, "/")

	name := cfg.ServiceName
	if name == "" {
		name = "mcp-mermaid"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	res := resource.NewSchemaless(attrs...)

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(base+TracesPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	metricExporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(base+MetricsPath))
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	p.Tracer = tp.Tracer(ScopeName)
	p.Meter = mp.Meter(ScopeName)
	p.shutdown = []func(context.Context) error{tp.Shutdown, mp.Shutdown}
	return p, nil
}

// Shutdown flushes and stops any exporters started by Setup.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, shutdown := range p.shutdown {
		if err := shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}
