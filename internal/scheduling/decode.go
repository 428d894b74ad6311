package scheduling

import "sort"

// buildPlacements turns the solver's per-activity assignments into the
// final Placement list. Each activity in this model already carries exactly
// one (room, start, weeks) decision, so the "group by (activity, room,
// start) and aggregate weeks" step of spec.md §4.7 degenerates to copying
// the decision — the aggregation only has work to do when the same
// (activity, room, start) key is produced by more than one y[a,k,r,s]
// realisation, which is the shape decodeRealisations below handles for
// solver backends that do emit y per-week rather than one set per activity.
func buildPlacements(assignments []assignment) []Placement {
	out := make([]Placement, 0, len(assignments))
	for _, a := range assignments {
		weeks := make([]int, len(a.choice.weeks))
		copy(weeks, a.choice.weeks)
		sort.Ints(weeks)
		out = append(out, Placement{
			ActivityID:    a.activity.ID,
			RoomID:        a.choice.room,
			StartTimeslot: a.choice.start,
			ActiveWeeks:   weeks,
		})
	}
	return out
}

// Realisation is one y[a, k, r, s] = 1 reading, the shape spec.md §4.7
// describes decoding from. decodeRealisations groups realisations by
// (activity, room, start) and aggregates their weeks, for callers that
// source placements from a per-week-granular solver trace rather than this
// package's own per-activity assignment (e.g. test fixtures built directly
// against the spec's y-variable semantics).
func decodeRealisations(realisations []struct {
	ActivityID    string
	RoomID        string
	StartTimeslot int
	Week          int
}) []Placement {
	type key struct {
		activity string
		room     string
		start    int
	}
	grouped := make(map[key][]int)
	order := make([]key, 0)
	for _, r := range realisations {
		k := key{r.ActivityID, r.RoomID, r.StartTimeslot}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], r.Week)
	}
	out := make([]Placement, 0, len(order))
	for _, k := range order {
		weeks := dedupSorted(grouped[k])
		out = append(out, Placement{
			ActivityID:    k.activity,
			RoomID:        k.room,
			StartTimeslot: k.start,
			ActiveWeeks:   weeks,
		})
	}
	return out
}

func dedupSorted(weeks []int) []int {
	sort.Ints(weeks)
	out := weeks[:0:0]
	var last int
	for i, w := range weeks {
		if i == 0 || w != last {
			out = append(out, w)
			last = w
		}
	}
	return out
}
