package kafkax

import (
	"context"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSplitBrokersAndTopic(t *testing.T) {
	got := SplitBrokers(" k1:9092, ,k2:9092 ")
	if len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if TopicFor("", "schedule.created.v1") != "schedule.created.v1" {
		t.Fatal("expected bare topic without prefix")
	}
	if TopicFor("prod", "schedule.created.v1") != "prod.schedule.created.v1" {
		t.Fatal("expected prefixed topic")
	}
}

func TestInjectTraceHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, EventHeaders("evt-1", "schedule.created.v1"))
	if HeaderValue(headers, HeaderEventID) != "evt-1" {
		t.Fatal("expected event id header to survive")
	}
	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if got := HeaderValue(headers, "traceparent"); got != want {
		t.Fatalf("expected traceparent %q, got %q", want, got)
	}
}

func TestExtractRoundTripAndMeta(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg := kafka.Message{
		Topic:   "roomsched.schedule.created.v1",
		Headers: InjectTraceHeaders(ctx, EventHeaders("evt-9", "schedule.created.v1")),
	}
	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msg))
	if got.TraceID() != traceID {
		t.Fatalf("expected trace id %s, got %s", traceID, got.TraceID())
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-9" || meta.EventType != "schedule.created.v1" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	bare := ExtractEventMeta(kafka.Message{Key: []byte("k1"), Topic: "t1"})
	if bare.EventID != "k1" || bare.EventType != "t1" {
		t.Fatalf("expected key/topic fallback, got %+v", bare)
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(" , ")(context.Background()); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestMissingTopics(t *testing.T) {
	parts := []kafka.Partition{{Topic: "roomsched.schedule.created.v1"}, {Topic: "roomsched.schedule.created.v1", ID: 1}}
	if err := MissingTopics([]string{"roomsched.schedule.created.v1"}, parts); err != nil {
		t.Fatalf("expected no missing topics, got %v", err)
	}
	err := MissingTopics([]string{"roomsched.schedule.created.v1", "roomsched.schedule.cancelled.v1"}, parts)
	if err == nil || !strings.Contains(err.Error(), "roomsched.schedule.cancelled.v1") {
		t.Fatalf("expected cancelled topic reported missing, got %v", err)
	}
}
