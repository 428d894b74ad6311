package models

import "time"

// Group is one node in an institution's group forest (series -> group ->
// subgroup). A nil ParentGroupID marks a root (spec.md §3).
type Group struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Name          string    `db:"name" json:"name"`
	ParentGroupID *string   `db:"parent_group_id" json:"parent_group_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// GroupFilter captures list filtering/pagination for groups.
type GroupFilter struct {
	InstitutionID string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
