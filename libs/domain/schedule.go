package domain

import (
	"errors"
	"time"
)

type ScheduleStatus string

const (
	StatusPending   ScheduleStatus = "pending"
	StatusConfirmed ScheduleStatus = "confirmed"
	StatusCancelled ScheduleStatus = "cancelled"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrInvalidTransition = errors.New("schedule status transition not allowed")
	ErrForbiddenActor    = errors.New("actor may not perform this transition")
)

// Actor is who requests a status change relative to the schedule.
type Actor struct {
	Admin bool
	Owner bool
}

// CanTransition enforces the schedule lifecycle: pending -> confirmed by an admin only; any
// non-cancelled schedule -> cancelled by its owner or an admin; cancelled is terminal.
func CanTransition(from, to ScheduleStatus, actor Actor) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidTransition
	}
	switch {
	case from == StatusPending && to == StatusConfirmed:
		if !actor.Admin {
			return ErrForbiddenActor
		}
		return nil
	case from != StatusCancelled && to == StatusCancelled:
		if !actor.Admin && !actor.Owner {
			return ErrForbiddenActor
		}
		return nil
	default:
		return ErrInvalidTransition
	}
}

type ScheduleUser struct {
	ID          int64       `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	AccountType AccountType `json:"accountType"`
}

type Schedule struct {
	ID           int64          `json:"id"`
	ScheduleDate time.Time      `json:"scheduleDate"`
	UserID       int64          `json:"userId"`
	RoomID       int64          `json:"roomId"`
	Status       ScheduleStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Room         *Room          `json:"room,omitempty"`
	User         *ScheduleUser  `json:"user,omitempty"`
}

type ScheduleResponse struct {
	Schedules       []Schedule `json:"schedules"`
	Total           int        `json:"total"`
	TotalPages      int        `json:"totalPages"`
	HasNextPage     bool       `json:"hasNextPage"`
	HasPreviousPage bool       `json:"hasPreviousPage"`
}

// NewScheduleResponse fills the pagination fields for one page of results.
func NewScheduleResponse(items []Schedule, total, page, limit int) ScheduleResponse {
	pages := TotalPages(total, limit)
	if items == nil {
		items = []Schedule{}
	}
	return ScheduleResponse{
		Schedules:       items,
		Total:           total,
		TotalPages:      pages,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1,
	}
}

func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

type CreateScheduleRequest struct {
	ScheduleDate time.Time `json:"scheduleDate" validate:"required"`
	RoomID       int64     `json:"roomId" validate:"required,gt=0"`
}

type UpdateScheduleRequest struct {
	ScheduleDate *time.Time `json:"scheduleDate,omitempty"`
	RoomID       *int64     `json:"roomId,omitempty" validate:"omitempty,gt=0"`
}

type UpdateScheduleStatusRequest struct {
	Status ScheduleStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}
