// Package telemetry records tool calls as OpenTelemetry metrics and spans.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/badbboy/mcp-mermaid/internal/server"
)

// Metric names.
const (
	MetricInvocations = "mcp_mermaid.tool.invocations"
	MetricLatency     = "mcp_mermaid.tool.latency"
)

// Observer implements server.Observer.
type Observer struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewObserver creates an observer bound to meter and tracer. A nil tracer
// disables spans.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	invocations, err := meter.Int64Counter(
		MetricInvocations,
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		MetricLatency,
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Observer{
		tracer:      tracer,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// Observe records one finished invocation.
func (o *Observer) Observe(ctx context.Context, obs server.Observation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", obs.Tool),
		attribute.Bool("success", obs.Code == ""),
	}
	if obs.OutputType != "" {
		attrs = append(attrs, attribute.String("output_type", string(obs.OutputType)))
	}
	if obs.Code != "" {
		attrs = append(attrs, attribute.String("error_code", string(obs.Code)))
	}

	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, obs.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	end := time.Now()
	_, span := o.tracer.Start(ctx, "tool.invoke",
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-obs.Duration)),
	)
	if obs.Code != "" {
		span.SetStatus(codes.Error, string(obs.Code))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

var _ server.Observer = (*Observer)(nil)
