package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Institution is the root of ownership: every room, group, course, activity,
// and schedule belongs to exactly one institution (spec.md §3).
type Institution struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	TimeGridConfig types.JSONText `db:"time_grid_config" json:"time_grid_config"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Grid decodes the institution's stored time-grid configuration.
func (i *Institution) Grid() (TimeGridConfig, error) {
	return DecodeTimeGrid(i.TimeGridConfig)
}

// InstitutionFilter captures list filtering/pagination for institutions.
type InstitutionFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
