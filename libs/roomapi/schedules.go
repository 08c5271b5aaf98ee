package roomapi

import (
	"context"
	"net/http"

	"github.com/goold/roomsched/libs/domain"
	"github.com/google/uuid"
)

func (c *Client) Schedules(ctx context.Context, page, limit int) (domain.ScheduleResponse, error) {
	var out domain.ScheduleResponse
	err := c.do(ctx, call{method: http.MethodGet, path: "/schedules", query: pageQuery(page, limit)}, &out)
	return out, err
}

func (c *Client) MySchedules(ctx context.Context, page, limit int) (domain.ScheduleResponse, error) {
	var out domain.ScheduleResponse
	err := c.do(ctx, call{method: http.MethodGet, path: "/schedules/my-schedules", query: pageQuery(page, limit)}, &out)
	return out, err
}

// UpcomingSchedules lists the caller's non-cancelled schedules from now on.
func (c *Client) UpcomingSchedules(ctx context.Context) ([]domain.Schedule, error) {
	var out []domain.Schedule
	err := c.do(ctx, call{method: http.MethodGet, path: "/schedules/upcoming"}, &out)
	return out, err
}

func (c *Client) Schedule(ctx context.Context, id int64) (domain.Schedule, error) {
	var out domain.Schedule
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodGet, path: idPath("/schedules", id)}, &out)
	return out, err
}

// CreateSchedule books a slot. idempotencyKey may be empty, in which case a fresh one is used;
// pass the same key when re-sending after a network error.
func (c *Client) CreateSchedule(ctx context.Context, req domain.CreateScheduleRequest, idempotencyKey string) (domain.Schedule, error) {
	var out domain.Schedule
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/schedules",
		body:   req,
		header: http.Header{"Idempotency-Key": {idempotencyKey}},
	}, &out)
	return out, err
}

func (c *Client) UpdateSchedule(ctx context.Context, id int64, req domain.UpdateScheduleRequest) (domain.Schedule, error) {
	var out domain.Schedule
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodPut, path: idPath("/schedules", id), body: req}, &out)
	return out, err
}

func (c *Client) UpdateScheduleStatus(ctx context.Context, id int64, status domain.ScheduleStatus) (domain.Schedule, error) {
	var out domain.Schedule
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   idPath("/schedules", id, "status"),
		body:   domain.UpdateScheduleStatusRequest{Status: status},
	}, &out)
	return out, err
}

func (c *Client) CancelSchedule(ctx context.Context, id int64) (domain.Schedule, error) {
	var out domain.Schedule
	if err := checkID(id); err != nil {
		return out, err
	}
	err := c.do(ctx, call{method: http.MethodPatch, path: idPath("/schedules", id, "cancel")}, &out)
	return out, err
}

func (c *Client) DeleteSchedule(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodDelete, path: idPath("/schedules", id)}, nil)
}
