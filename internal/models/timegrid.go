package models

import (
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
)

// TimeGridConfig is the immutable time-axis shape of a schedule, copied onto
// the owning Institution and, at generation time, onto the Schedule itself
// so later edits to the institution never retroactively affect a generated
// schedule (spec.md §3).
type TimeGridConfig struct {
	Weeks                      int `json:"weeks"`
	Days                       int `json:"days"`
	TimeslotsPerDay            int `json:"timeslots_per_day"`
	MaxTimeslotsPerDayPerGroup int `json:"max_timeslots_per_day_per_group"`
}

// EncodeTimeGrid marshals a TimeGridConfig into the jsonb wire shape used by
// Institution.TimeGridConfig and Schedule.TimeGridConfig columns.
func EncodeTimeGrid(g TimeGridConfig) (types.JSONText, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

// DecodeTimeGrid reverses EncodeTimeGrid.
func DecodeTimeGrid(raw types.JSONText) (TimeGridConfig, error) {
	var g TimeGridConfig
	if len(raw) == 0 {
		return g, nil
	}
	if err := raw.Unmarshal(&g); err != nil {
		return TimeGridConfig{}, err
	}
	return g, nil
}
