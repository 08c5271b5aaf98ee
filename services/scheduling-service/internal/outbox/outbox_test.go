package outbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/kafkax"
	otelx "github.com/goold/roomsched/libs/otel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewScheduleEvent(t *testing.T) {
	at := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	evt, err := NewScheduleEvent(ScheduleCreated, SchedulePayload{ScheduleID: 12, RoomID: 3, UserID: 4, ScheduleDate: at, Status: "pending", OccurredAt: at})
	if err != nil {
		t.Fatalf("NewScheduleEvent: %v", err)
	}
	if evt.AggregateType != "schedule" || evt.AggregateID != "12" || evt.EventType != ScheduleCreated {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	var decoded map[string]any
	if err := json.Unmarshal(evt.Payload, &decoded); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if decoded["room_id"] != float64(3) || decoded["status"] != "pending" {
		t.Fatalf("unexpected payload %v", decoded)
	}
	if _, ok := decoded["from_status"]; ok {
		t.Fatal("from_status must be omitted when empty")
	}
}

func TestSchedulePayloadWithDetails(t *testing.T) {
	s := domain.Schedule{
		ID:   5,
		Room: &domain.Room{Number: "101"},
		User: &domain.ScheduleUser{FirstName: "Ana", LastName: "Souza", Email: "ana@example.com"},
	}
	p := SchedulePayload{ScheduleID: s.ID}.WithDetails(s)
	if p.RoomNumber != "101" || p.UserEmail != "ana@example.com" || p.UserName != "Ana Souza" {
		t.Fatalf("unexpected payload %+v", p)
	}
	bare := SchedulePayload{ScheduleID: 5}.WithDetails(domain.Schedule{ID: 5})
	if bare.RoomNumber != "" || bare.UserEmail != "" {
		t.Fatalf("expected no details without joins, got %+v", bare)
	}
}

func TestPublisherMessages(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	p := NewPublisher(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), PublisherConfig{TopicPrefix: "dev"})

	traceparent := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	msgs := p.Messages(context.Background(), []Record{{
		ID:            1,
		EventID:       "evt-1",
		AggregateType: "schedule",
		AggregateID:   "12",
		EventType:     ScheduleCancelled,
		Payload:       []byte(`{}`),
		Trace:         otelx.TraceContext{Parent: traceparent},
	}})
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Topic != "dev."+ScheduleCancelled || string(msg.Key) != "schedule:12" {
		t.Fatalf("unexpected topic/key %q %q", msg.Topic, msg.Key)
	}
	if kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventID) != "evt-1" {
		t.Fatal("expected event id header")
	}
	if kafkax.HeaderValue(msg.Headers, "traceparent") != traceparent {
		t.Fatalf("expected restored trace context, got %q", kafkax.HeaderValue(msg.Headers, "traceparent"))
	}
}
