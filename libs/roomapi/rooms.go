package roomapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/goold/roomsched/libs/domain"
)

func (c *Client) Rooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	err := c.do(ctx, call{method: http.MethodGet, path: "/rooms"}, &out)
	return out, err
}

// AvailableRooms lists rooms open for booking.
func (c *Client) AvailableRooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	err := c.do(ctx, call{method: http.MethodGet, path: "/rooms/available"}, &out)
	return out, err
}

func (c *Client) Room(ctx context.Context, id int64) (domain.Room, error) {
	var out domain.Room
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodGet, path: idPath("/rooms", id)}, &out)
	return out, err
}

func (c *Client) CreateRoom(ctx context.Context, req domain.CreateRoomRequest) (domain.Room, error) {
	var out domain.Room
	if _, err := domain.RoomConfig(req.StartTime, req.EndTime, req.IntervalMinutes); err != nil {
		return out, &APIError{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	err := c.do(ctx, call{method: http.MethodPost, path: "/rooms", body: req}, &out)
	return out, err
}

func (c *Client) UpdateRoom(ctx context.Context, id int64, req domain.UpdateRoomRequest) (domain.Room, error) {
	var out domain.Room
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodPut, path: idPath("/rooms", id), body: req}, &out)
	return out, err
}

func (c *Client) UpdateRoomAvailability(ctx context.Context, id int64, available bool) (domain.Room, error) {
	var out domain.Room
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   idPath("/rooms", id, "availability"),
		body:   domain.UpdateRoomAvailabilityRequest{Availability: available},
	}, &out)
	return out, err
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/rooms", id)}, nil)
}

// RoomSchedules lists the room's schedules with scheduleDate in [from, to).
func (c *Client) RoomSchedules(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Schedule, error) {
	var out []domain.Schedule
	if err := checkID(roomID); err != nil {
		return out, err
	}
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.RFC3339))
	}
	err := c.do(ctx, call{method: http.MethodGet, path: idPath("/rooms", roomID, "schedules"), query: q}, &out)
	return out, err
}

// RoomSlots returns the backend's marked slot list for date (YYYY-MM-DD).
func (c *Client) RoomSlots(ctx context.Context, roomID int64, date string) (domain.RoomSlots, error) {
	var out domain.RoomSlots
	if err := checkID(roomID); err != nil {
		return out, err
	}
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   idPath("/rooms", roomID, "slots"),
		query:  url.Values{"date": {date}},
	}, &out)
	return out, err
}
