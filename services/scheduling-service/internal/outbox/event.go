package outbox

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/domain"
)

// Event types published by the scheduling service. The Kafka topic is the event type, optionally
// prefixed per deployment.
const (
	ScheduleCreated       = "schedule.created.v1"
	ScheduleStatusChanged = "schedule.status_changed.v1"
	ScheduleCancelled     = "schedule.cancelled.v1"
	UserStatusChanged     = "user.status_changed.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type SchedulePayload struct {
	ScheduleID   int64     `json:"schedule_id"`
	RoomID       int64     `json:"room_id"`
	UserID       int64     `json:"user_id"`
	ScheduleDate time.Time `json:"schedule_date"`
	Status       string    `json:"status"`
	FromStatus   string    `json:"from_status,omitempty"`
	ActorID      int64     `json:"actor_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
	RoomNumber   string    `json:"room_number,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
}

// WithDetails copies the joined room and user fields of s, when loaded, into p.
func (p SchedulePayload) WithDetails(s domain.Schedule) SchedulePayload {
	if s.Room != nil {
		p.RoomNumber = s.Room.Number
	}
	if s.User != nil {
		p.UserEmail = s.User.Email
		p.UserName = strings.TrimSpace(s.User.FirstName + " " + s.User.LastName)
	}
	return p
}

type UserStatusPayload struct {
	UserID     int64     `json:"user_id"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewScheduleEvent(eventType string, p SchedulePayload) (Event, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "schedule",
		AggregateID:   strconv.FormatInt(p.ScheduleID, 10),
		EventType:     eventType,
		Payload:       raw,
	}, nil
}

func NewUserStatusEvent(p UserStatusPayload) (Event, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "user",
		AggregateID:   strconv.FormatInt(p.UserID, 10),
		EventType:     UserStatusChanged,
		Payload:       raw,
	}, nil
}
