package domain

import (
	"errors"
	"time"

	"github.com/goold/roomsched/libs/availability"
)

var ErrPartialRoomConfig = errors.New("startTime, endTime and intervalMinutes must be set together")

type Room struct {
	ID              int64     `json:"id"`
	Number          string    `json:"number"`
	Availability    bool      `json:"availability"`
	StartTime       *string   `json:"startTime,omitempty"`
	EndTime         *string   `json:"endTime,omitempty"`
	IntervalMinutes *int      `json:"intervalMinutes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Config returns the room's slot configuration, nil when the room has none.
func (r Room) Config() (*availability.Config, error) {
	return RoomConfig(r.StartTime, r.EndTime, r.IntervalMinutes)
}

func RoomConfig(start, end *string, interval *int) (*availability.Config, error) {
	set := 0
	for _, present := range []bool{start != nil && *start != "", end != nil && *end != "", interval != nil} {
		if present {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case 3:
		cfg, err := availability.NewConfig(*start, *end, *interval)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	default:
		return nil, ErrPartialRoomConfig
	}
}

type CreateRoomRequest struct {
	Number          string  `json:"number" validate:"required,max=20"`
	StartTime       *string `json:"startTime,omitempty" validate:"omitempty,clock"`
	EndTime         *string `json:"endTime,omitempty" validate:"omitempty,clock"`
	IntervalMinutes *int    `json:"intervalMinutes,omitempty" validate:"omitempty,min=1,max=1440"`
}

type UpdateRoomRequest struct {
	Number          *string `json:"number,omitempty" validate:"omitempty,min=1,max=20"`
	Availability    *bool   `json:"availability,omitempty"`
	StartTime       *string `json:"startTime,omitempty" validate:"omitempty,clock"`
	EndTime         *string `json:"endTime,omitempty" validate:"omitempty,clock"`
	IntervalMinutes *int    `json:"intervalMinutes,omitempty" validate:"omitempty,min=1,max=1440"`
}

type UpdateRoomAvailabilityRequest struct {
	Availability bool `json:"availability"`
}

// RoomSlots is the slot listing of a room for one day.
type RoomSlots struct {
	RoomID     int64                   `json:"roomId"`
	Date       string                  `json:"date"`
	Configured bool                    `json:"configured"`
	Slots      []availability.TimeSlot `json:"slots"`
}
