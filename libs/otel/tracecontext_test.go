package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if tc := CaptureTraceContext(context.Background()); !tc.Empty() {
		t.Fatalf("expected empty trace context without a span, got %+v", tc)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	tc := CaptureTraceContext(trace.ContextWithSpanContext(context.Background(), sc))
	if tc.Parent != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" {
		t.Fatalf("unexpected traceparent %q", tc.Parent)
	}

	restored := trace.SpanContextFromContext(tc.Into(context.Background()))
	if restored.TraceID() != traceID || !restored.IsRemote() {
		t.Fatalf("expected remote span context with trace %s, got %+v", traceID, restored)
	}

	bad := TraceContext{Parent: "garbage"}
	if trace.SpanContextFromContext(bad.Into(context.Background())).IsValid() {
		t.Fatal("expected malformed traceparent to be ignored")
	}
}
