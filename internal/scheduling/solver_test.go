package scheduling

import (
	"context"
	"testing"
)

func fastParams() SolverParams {
	return SolverParams{MaxDuration: 5_000_000_000, Workers: 1} // 5s, generous for unit tests
}

// S1: trivial single activity, single room, single group.
func TestGenerateS1Trivial(t *testing.T) {
	grid := TimeGrid{Weeks: 1, Days: 1, TimeslotsPerDay: 4, MaxTimeslotsPerDayPerGroup: 4}
	groups := []Group{{ID: "g1"}}
	rooms := []Room{{ID: "r1"}}
	activities := []Activity{
		{ID: "a1", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly},
	}

	res, err := Generate(context.Background(), grid, groups, activities, rooms, fastParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResultFeasible {
		t.Fatalf("expected feasible, got %v (%s)", res.Kind, res.Detail)
	}
	if len(res.Placements) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(res.Placements))
	}
	p := res.Placements[0]
	if len(p.ActiveWeeks) != 1 || p.ActiveWeeks[0] != 0 {
		t.Fatalf("weekly activity in a 1-week grid must run in week 0, got %v", p.ActiveWeeks)
	}
	if grid.DayOf(p.StartTimeslot) != grid.DayOf(p.StartTimeslot+1) {
		t.Fatalf("placement crosses a day boundary: %+v", p)
	}
}

// S2: feature mismatch makes the activity unplaceable before the solver runs.
func TestGenerateS2FeatureMismatch(t *testing.T) {
	grid := TimeGrid{Weeks: 1, Days: 1, TimeslotsPerDay: 4, MaxTimeslotsPerDayPerGroup: 4}
	groups := []Group{{ID: "g1"}}
	rooms := []Room{{ID: "r1"}}
	activities := []Activity{
		{ID: "a1", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly, RequiredRoomFeatures: []string{"projector"}},
	}

	_, err := Generate(context.Background(), grid, groups, activities, rooms, fastParams())
	se, ok := err.(*Error)
	if !ok || se.Kind != KindInfeasible || se.Detail != "no_eligible_room:a1" {
		t.Fatalf("expected infeasible:no_eligible_room:a1, got %v", err)
	}
}

// S3: biweekly_even in a single-week grid is a structural error, not a solver outcome.
func TestGenerateS3InvalidFrequencyForGridWidth(t *testing.T) {
	grid := TimeGrid{Weeks: 1, Days: 1, TimeslotsPerDay: 2, MaxTimeslotsPerDayPerGroup: 2}
	groups := []Group{{ID: "g1"}}
	rooms := []Room{{ID: "r1"}}
	activities := []Activity{
		{ID: "a1", GroupID: "g1", ProfessorID: "p1", DurationSlots: 2, Frequency: FrequencyBiweeklyEven},
		{ID: "a2", GroupID: "g1", ProfessorID: "p1", DurationSlots: 2, Frequency: FrequencyWeekly},
	}

	_, err := Generate(context.Background(), grid, groups, activities, rooms, fastParams())
	se, ok := err.(*Error)
	if !ok || se.Kind != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

// S4: two biweekly activities sharing everything but their active week.
func TestGenerateS4BiweeklySeparation(t *testing.T) {
	grid := TimeGrid{Weeks: 2, Days: 1, TimeslotsPerDay: 2, MaxTimeslotsPerDayPerGroup: 2}
	groups := []Group{{ID: "g1"}}
	rooms := []Room{{ID: "r1"}}
	activities := []Activity{
		{ID: "a1", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyBiweekly},
		{ID: "a2", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyBiweekly},
	}

	res, err := Generate(context.Background(), grid, groups, activities, rooms, fastParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResultFeasible {
		t.Fatalf("expected feasible, got %v (%s)", res.Kind, res.Detail)
	}
	if len(res.Placements) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(res.Placements))
	}
	w0, w1 := res.Placements[0].ActiveWeeks, res.Placements[1].ActiveWeeks
	if len(w0) != 1 || len(w1) != 1 || w0[0] == w1[0] {
		t.Fatalf("expected the two placements to occupy different weeks, got %v and %v", w0, w1)
	}
}

// S5: ancestry exclusivity between a series-level activity and a child group's activity.
func TestGenerateS5AncestryExclusivity(t *testing.T) {
	grid := TimeGrid{Weeks: 1, Days: 1, TimeslotsPerDay: 4, MaxTimeslotsPerDayPerGroup: 4}
	groups := []Group{
		{ID: "series"},
		{ID: "g1", ParentGroupID: "series"},
		{ID: "g2", ParentGroupID: "series"},
	}
	rooms := []Room{{ID: "r1"}}
	activities := []Activity{
		{ID: "a_series", GroupID: "series", DurationSlots: 2, Frequency: FrequencyWeekly},
		{ID: "a_g1", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly},
	}

	res, err := Generate(context.Background(), grid, groups, activities, rooms, fastParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResultFeasible {
		t.Fatalf("expected feasible, got %v (%s)", res.Kind, res.Detail)
	}

	byActivity := map[string]Placement{}
	for _, p := range res.Placements {
		byActivity[p.ActivityID] = p
	}
	s := Covered(byActivity["a_series"].StartTimeslot, 2)
	g := Covered(byActivity["a_g1"].StartTimeslot, 2)
	for _, a := range s {
		for _, b := range g {
			if a == b {
				t.Fatalf("a_series and a_g1 overlap at slot %d despite ancestry conflict", a)
			}
		}
	}
}

// S6: total demand exceeds the daily load cap for the group.
func TestGenerateS6DailyLoadInfeasible(t *testing.T) {
	grid := TimeGrid{Weeks: 1, Days: 1, TimeslotsPerDay: 8, MaxTimeslotsPerDayPerGroup: 6}
	groups := []Group{{ID: "g1"}}
	rooms := []Room{{ID: "r1"}}
	activities := []Activity{
		{ID: "a1", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly},
		{ID: "a2", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly},
		{ID: "a3", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly},
		{ID: "a4", GroupID: "g1", DurationSlots: 2, Frequency: FrequencyWeekly},
	}

	res, err := Generate(context.Background(), grid, groups, activities, rooms, fastParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResultInfeasible {
		t.Fatalf("expected infeasible, got %v", res.Kind)
	}
}

func TestGenerateNoActivities(t *testing.T) {
	grid := TimeGrid{Weeks: 1, Days: 1, TimeslotsPerDay: 4, MaxTimeslotsPerDayPerGroup: 4}
	_, err := Generate(context.Background(), grid, nil, nil, []Room{{ID: "r1"}}, fastParams())
	se, ok := err.(*Error)
	if !ok || se.Kind != KindInvalidInput {
		t.Fatalf("expected invalid_input for empty activities, got %v", err)
	}
}
