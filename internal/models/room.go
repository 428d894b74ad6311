package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Room is a physical space an activity can be placed in (spec.md §3).
type Room struct {
	ID            string         `db:"id" json:"id"`
	InstitutionID string         `db:"institution_id" json:"institution_id"`
	Name          string         `db:"name" json:"name"`
	Capacity      int            `db:"capacity" json:"capacity"`
	Features      types.JSONText `db:"features" json:"features"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// FeatureList decodes the room's feature set.
func (r *Room) FeatureList() ([]string, error) {
	return decodeStringList(r.Features)
}

func decodeStringList(raw types.JSONText) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := raw.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStringList(ss []string) (types.JSONText, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

// EncodeFeatures marshals a feature set for storage.
func EncodeFeatures(features []string) (types.JSONText, error) {
	return encodeStringList(features)
}

// RoomFilter captures list filtering/pagination for rooms.
type RoomFilter struct {
	InstitutionID string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
