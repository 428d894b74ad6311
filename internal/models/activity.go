package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ActivityType enumerates the kinds of teaching activity that can be
// scheduled (spec.md §3).
type ActivityType string

const (
	ActivityCourse     ActivityType = "course"
	ActivitySeminar    ActivityType = "seminar"
	ActivityLaboratory ActivityType = "laboratory"
	ActivityOther      ActivityType = "other"
)

// Frequency governs which weeks an activity is active in (spec.md §4.5).
type Frequency string

const (
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweekly     Frequency = "biweekly"
	FrequencyBiweeklyOdd  Frequency = "biweekly_odd"
	FrequencyBiweeklyEven Frequency = "biweekly_even"
)

// SelectedTimeslot is a manual pinning hint/override (spec.md §3, §4.5).
type SelectedTimeslot struct {
	StartTimeslot int   `json:"start_timeslot"`
	ActiveWeeks   []int `json:"active_weeks,omitempty"`
}

// Activity is one teaching unit that needs a room, a start, and active
// weeks (spec.md §3).
type Activity struct {
	ID                   string         `db:"id" json:"id"`
	InstitutionID        string         `db:"institution_id" json:"institution_id"`
	CourseID             string         `db:"course_id" json:"course_id"`
	ActivityType         ActivityType   `db:"activity_type" json:"activity_type"`
	DurationSlots        int            `db:"duration_slots" json:"duration_slots"`
	GroupID              string         `db:"group_id" json:"group_id"`
	ProfessorID          sql.NullString `db:"professor_id" json:"professor_id,omitempty"`
	RequiredRoomFeatures types.JSONText `db:"required_room_features" json:"required_room_features"`
	Frequency            Frequency      `db:"frequency" json:"frequency"`
	SelectedTimeslot     types.JSONText `db:"selected_timeslot" json:"selected_timeslot,omitempty"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// RequiredFeatures decodes the activity's required room features.
func (a *Activity) RequiredFeatures() ([]string, error) {
	return decodeStringList(a.RequiredRoomFeatures)
}

// Pin decodes the activity's selected_timeslot hint, if any.
func (a *Activity) Pin() (*SelectedTimeslot, error) {
	if len(a.SelectedTimeslot) == 0 {
		return nil, nil
	}
	var pin SelectedTimeslot
	if err := a.SelectedTimeslot.Unmarshal(&pin); err != nil {
		return nil, err
	}
	return &pin, nil
}

// EncodePin marshals a pin for storage.
func EncodePin(pin *SelectedTimeslot) (types.JSONText, error) {
	if pin == nil {
		return nil, nil
	}
	b, err := json.Marshal(pin)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

// ActivityFilter captures list filtering/pagination for activities.
type ActivityFilter struct {
	InstitutionID string
	CourseID      string
	GroupID       string
	ProfessorID   string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
