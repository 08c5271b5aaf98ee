package domain

import "time"

type LogModule string

const (
	ModuleAccount  LogModule = "Account"
	ModuleSchedule LogModule = "Schedule"
	ModuleAuth     LogModule = "Auth"
)

func (m LogModule) Valid() bool {
	switch m {
	case ModuleAccount, ModuleSchedule, ModuleAuth:
		return true
	}
	return false
}

type Log struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"userId"`
	Module       LogModule     `json:"module"`
	ActivityDate time.Time     `json:"activityDate"`
	ActivityType string        `json:"activityType"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	User         *ScheduleUser `json:"user,omitempty"`
}

type LogsResponse struct {
	Total int   `json:"total"`
	Logs  []Log `json:"logs"`
}

type CreateLogRequest struct {
	Module       LogModule `json:"module" validate:"required,oneof=Account Schedule Auth"`
	ActivityType string    `json:"activityType" validate:"required,max=120"`
}
