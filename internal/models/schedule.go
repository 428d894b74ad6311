package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleStatus is the Schedule state machine (spec.md §4.8).
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "DRAFT"
	ScheduleRunning   ScheduleStatus = "RUNNING"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
	ScheduleFailed    ScheduleStatus = "FAILED"
)

// Schedule is one generation attempt for an institution (spec.md §3). Its
// TimeGridConfig is copied from the institution at creation time so later
// edits to the institution never retroactively affect it.
type Schedule struct {
	ID             string         `db:"id" json:"id"`
	InstitutionID  string         `db:"institution_id" json:"institution_id"`
	TimeGridConfig types.JSONText `db:"time_grid_config" json:"time_grid_config"`
	Timestamp      time.Time      `db:"timestamp" json:"timestamp"`
	Status         ScheduleStatus `db:"status" json:"status"`
	ErrorMessage   *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Grid decodes the schedule's frozen time-grid configuration.
func (s *Schedule) Grid() (TimeGridConfig, error) {
	return DecodeTimeGrid(s.TimeGridConfig)
}

// ScheduledActivity is one placement belonging to a COMPLETED schedule
// (spec.md §3).
type ScheduledActivity struct {
	ID            string         `db:"id" json:"id"`
	ScheduleID    string         `db:"schedule_id" json:"schedule_id"`
	ActivityID    string         `db:"activity_id" json:"activity_id"`
	RoomID        string         `db:"room_id" json:"room_id"`
	StartTimeslot int            `db:"start_timeslot" json:"start_timeslot"`
	ActiveWeeks   types.JSONText `db:"active_weeks" json:"active_weeks"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// ActiveWeekList decodes the placement's active weeks.
func (s *ScheduledActivity) ActiveWeekList() ([]int, error) {
	if len(s.ActiveWeeks) == 0 {
		return nil, nil
	}
	var out []int
	if err := s.ActiveWeeks.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeWeeks marshals an active-week set for storage.
func EncodeWeeks(weeks []int) (types.JSONText, error) {
	if weeks == nil {
		weeks = []int{}
	}
	b, err := json.Marshal(weeks)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

// ScheduleFilter captures list filtering/pagination for schedules.
type ScheduleFilter struct {
	InstitutionID string
	Status        *ScheduleStatus
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
