package sequence

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ib-77/tempo/pkg/tempo/sequence"

const (
	attrRunID     = attribute.Key("sequence.run_id")
	attrIteration = attribute.Key("sequence.iteration")
	attrStep      = attribute.Key("sequence.step.index")
	attrDelayMs   = attribute.Key("sequence.step.delay_ms")
	attrSteps     = attribute.Key("sequence.steps")
	attrTimes     = attribute.Key("sequence.times")
)

func startSpan(ctx context.Context, tracer trace.Tracer, name string,
	attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(attrs...))
}

// endSpan records the outcome on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
