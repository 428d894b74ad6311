package models

import "time"

// Course is a pure grouping entity for activities; it carries no scheduling
// semantics of its own (spec.md §3).
type Course struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Name          string    `db:"name" json:"name"`
	// ActivitiesDurationSlots is optional aggregate metadata (spec.md §9 open
	// question): some upstream systems record how many slots a course's
	// activities should total, but the solver never reads it.
	ActivitiesDurationSlots *int      `db:"activities_duration_slots" json:"activities_duration_slots,omitempty"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures list filtering/pagination for courses.
type CourseFilter struct {
	InstitutionID string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
