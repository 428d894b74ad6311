// Package scheduling implements the constraint-satisfaction core that turns
// a declarative timetable problem into room/start/week assignments. It is
// pure: no I/O, no database, no queue. Callers gather inputs and persist
// outputs; this package only decides.
package scheduling

import "fmt"

// ActivityType enumerates the kinds of teaching activity that can be scheduled.
type ActivityType string

const (
	ActivityCourse     ActivityType = "course"
	ActivitySeminar    ActivityType = "seminar"
	ActivityLaboratory ActivityType = "laboratory"
	ActivityOther      ActivityType = "other"
)

// Frequency governs which weeks an activity is active in.
type Frequency string

const (
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweekly     Frequency = "biweekly"
	FrequencyBiweeklyOdd  Frequency = "biweekly_odd"
	FrequencyBiweeklyEven Frequency = "biweekly_even"
)

// TimeGrid is the immutable shape of a schedule's time axis.
type TimeGrid struct {
	Weeks                      int
	Days                       int
	TimeslotsPerDay            int
	MaxTimeslotsPerDayPerGroup int
}

// SlotsPerWeek returns the number of linear slot indexes in a single week.
func (g TimeGrid) SlotsPerWeek() int {
	return g.Days * g.TimeslotsPerDay
}

// Index maps (day, slot-in-day) to a linear slot index within a week.
func (g TimeGrid) Index(day, slot int) int {
	return day*g.TimeslotsPerDay + slot
}

// DayOf returns the day a linear slot index belongs to.
func (g TimeGrid) DayOf(index int) int {
	return index / g.TimeslotsPerDay
}

// Pin is a manual override pinning an activity to a specific start and,
// optionally, a specific set of active weeks.
type Pin struct {
	StartTimeslot int
	ActiveWeeks   []int // nil means "derive from frequency"
}

// Activity is the scheduling-relevant projection of the domain Activity.
type Activity struct {
	ID                   string
	GroupID              string
	ProfessorID          string // empty means no professor
	ActivityType         ActivityType
	DurationSlots        int
	RequiredRoomFeatures []string
	Frequency            Frequency
	SelectedTimeslot     *Pin
}

// Room is the scheduling-relevant projection of the domain Room.
type Room struct {
	ID       string
	Features []string
}

// Group is the scheduling-relevant projection of the domain Group, carrying
// only the parent link ancestry resolution needs.
type Group struct {
	ID            string
	ParentGroupID string
}

// Placement is one decided (activity, room, start, active-weeks) tuple, the
// shape a ScheduledActivity row is built from.
type Placement struct {
	ActivityID    string
	RoomID        string
	StartTimeslot int
	ActiveWeeks   []int
}

// ResultKind classifies how a solve attempt concluded.
type ResultKind string

const (
	ResultFeasible   ResultKind = "feasible"
	ResultInfeasible ResultKind = "infeasible"
	ResultTimeout    ResultKind = "timeout"
	ResultSolverErr  ResultKind = "solver_error"
)

// Result is the outcome of a Solve call.
type Result struct {
	Kind        ResultKind
	Placements  []Placement
	Detail      string // short machine classifier, e.g. "timeout" or "infeasible"
	NodesVisited int
}

// Kind identifiers used by *Error.Kind below, exported so callers (the
// worker's lifecycle manager) can build error_message strings without
// string-matching on Error().
const (
	KindInvalidInput = "invalid_input"
	KindInvalidGraph = "invalid_graph"
	KindInfeasible   = "infeasible"
)

// Error is the scheduling core's own error type, distinct from pkg/errors
// because this package must stay free of any dependency beyond the standard
// library (see DESIGN.md, solver.go entry).
type Error struct {
	Kind   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s:%s", e.Kind, e.Detail)
}

func invalidInput(detail string) *Error { return &Error{Kind: KindInvalidInput, Detail: detail} }
func invalidGraph(detail string) *Error { return &Error{Kind: KindInvalidGraph, Detail: detail} }
func infeasible(detail string) *Error   { return &Error{Kind: KindInfeasible, Detail: detail} }
