package scheduling

import "sort"

// Variable is the decision-variable domain for one activity: the candidate
// rooms, candidate starts, and candidate active-week sets a solution may
// pick from (spec.md §4.4). The three layers (x[a,r,s], w[a,k], y[a,k,r,s])
// are not materialised as separate boolean grids; the backtracking solver
// picks one room, one start, and one week-set per activity directly, which
// is equivalent once exactly-one is enforced per activity (§4.5 uniqueness).
type Variable struct {
	Activity    Activity
	Rooms       []Room
	Starts      []int
	WeekOptions [][]int
}

// BuildVariables computes the per-activity candidate domains. It fails with
// InvalidInput for structural problems (bad duration, frequency/weeks
// mismatch) and with Infeasible when an activity has no eligible room or its
// pin cannot be satisfied.
func BuildVariables(grid TimeGrid, activities []Activity, rooms []Room) ([]Variable, error) {
	vars := make([]Variable, 0, len(activities))
	for _, a := range activities {
		starts, err := AllowedStarts(grid, a.DurationSlots)
		if err != nil {
			return nil, err
		}

		eligible := EligibleRooms(rooms, a.RequiredRoomFeatures)
		if len(eligible) == 0 {
			return nil, infeasible("no_eligible_room:" + a.ID)
		}

		weekOptions, err := weekOptionsFor(a, grid.Weeks)
		if err != nil {
			return nil, err
		}

		if a.SelectedTimeslot != nil {
			starts, weekOptions, err = applyPin(a, starts, weekOptions, grid.Weeks)
			if err != nil {
				return nil, err
			}
		}

		vars = append(vars, Variable{
			Activity:    a,
			Rooms:       eligible,
			Starts:      starts,
			WeekOptions: weekOptions,
		})
	}
	return vars, nil
}

// weekOptionsFor enumerates the candidate active-week sets implied by an
// activity's frequency (spec.md §4.5 "week pattern").
func weekOptionsFor(a Activity, weeks int) ([][]int, error) {
	switch a.Frequency {
	case FrequencyWeekly:
		all := make([]int, weeks)
		for k := range all {
			all[k] = k
		}
		return [][]int{all}, nil
	case FrequencyBiweekly:
		if weeks < 2 {
			return nil, invalidInput("biweekly requires weeks >= 2")
		}
		opts := make([][]int, weeks)
		for k := 0; k < weeks; k++ {
			opts[k] = []int{k}
		}
		return opts, nil
	case FrequencyBiweeklyOdd:
		if weeks < 2 {
			return nil, invalidInput("biweekly_odd requires weeks >= 2")
		}
		return [][]int{{0}}, nil
	case FrequencyBiweeklyEven:
		if weeks < 2 {
			return nil, invalidInput("biweekly_even requires weeks >= 2")
		}
		return [][]int{{1}}, nil
	default:
		return nil, invalidInput("unknown frequency: " + string(a.Frequency))
	}
}

// applyPin narrows starts/weekOptions to the selected_timeslot hint. The
// room stays free among the activity's eligible rooms (spec.md §4.5:
// "for some r* in R_a").
func applyPin(a Activity, starts []int, weekOptions [][]int, weeks int) ([]int, [][]int, error) {
	pin := a.SelectedTimeslot
	pinned := false
	for _, s := range starts {
		if s == pin.StartTimeslot {
			pinned = true
			break
		}
	}
	if !pinned {
		return nil, nil, infeasible("pin_conflict:" + a.ID)
	}

	if pin.ActiveWeeks != nil {
		ws := make([]int, len(pin.ActiveWeeks))
		copy(ws, pin.ActiveWeeks)
		sort.Ints(ws)
		for _, w := range ws {
			if w < 0 || w >= weeks {
				return nil, nil, infeasible("pin_conflict:" + a.ID)
			}
		}
		weekOptions = [][]int{ws}
	}

	return []int{pin.StartTimeslot}, weekOptions, nil
}
