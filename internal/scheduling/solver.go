package scheduling

import (
	"context"
	"sort"
	"time"
)

// SolverParams fixes the solver's budget so results are deterministic for a
// given input (spec.md §4.6).
type SolverParams struct {
	MaxDuration time.Duration // default 60s
	Workers     int           // informational; this driver searches single-threaded, see below
}

// DefaultSolverParams matches the spec's default budget.
func DefaultSolverParams() SolverParams {
	return SolverParams{MaxDuration: 60 * time.Second, Workers: 8}
}

// choice is one candidate placement considered for an activity during search.
type choice struct {
	room  string
	start int
	weeks []int
}

// assignment is the decision made for one activity, used to build the final
// placement list and to unwind on backtrack.
type assignment struct {
	activity Activity
	choice   choice
}

// solverState carries the search's mutable machinery. Workers in SolverParams
// is not used to spawn goroutines: the search here is a single deterministic
// backtracking walk (see DESIGN.md — no corpus-grounded parallel CSP/ILP
// solver exists to parallelise against). It is retained as a field so a
// caller's configured value round-trips into telemetry without affecting
// determinism.
type solverState struct {
	grid  TimeGrid
	occ   *occupancy
	nodes int
}

// Solve runs the deterministic backtracking search over vars and classifies
// the outcome. Activities are tried most-constrained-first (fewest
// room*start*week combinations, ties broken by input order) so the same
// input always explores the same order of the search tree.
func Solve(ctx context.Context, grid TimeGrid, anc *Ancestry, vars []Variable, params SolverParams) Result {
	if params.MaxDuration <= 0 {
		params.MaxDuration = DefaultSolverParams().MaxDuration
	}
	ctx, cancel := context.WithTimeout(ctx, params.MaxDuration)
	defer cancel()

	ordered := orderMostConstrainedFirst(vars)

	st := &solverState{grid: grid, occ: newOccupancy(grid, anc)}
	assignments := make([]assignment, 0, len(ordered))

	ok, timedOut := backtrack(ctx, st, ordered, 0, &assignments)
	switch {
	case timedOut:
		return Result{Kind: ResultTimeout, Detail: "timeout", NodesVisited: st.nodes}
	case ok:
		return Result{Kind: ResultFeasible, Placements: buildPlacements(assignments), NodesVisited: st.nodes}
	default:
		return Result{Kind: ResultInfeasible, Detail: "infeasible", NodesVisited: st.nodes}
	}
}

func orderMostConstrainedFirst(vars []Variable) []Variable {
	ordered := make([]Variable, len(vars))
	copy(ordered, vars)
	sort.SliceStable(ordered, func(i, j int) bool {
		return domainSize(ordered[i]) < domainSize(ordered[j])
	})
	return ordered
}

func domainSize(v Variable) int {
	return len(v.Rooms) * len(v.Starts) * len(v.WeekOptions)
}

// backtrack assigns vars[idx:] depth-first. Returns (found, timedOut).
func backtrack(ctx context.Context, st *solverState, vars []Variable, idx int, out *[]assignment) (bool, bool) {
	if idx == len(vars) {
		return true, false
	}
	if err := ctx.Err(); err != nil {
		return false, true
	}

	v := vars[idx]
	for _, weeks := range v.WeekOptions {
		for _, room := range v.Rooms {
			for _, start := range v.Starts {
				st.nodes++
				if st.nodes%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return false, true
					}
				}
				if !st.occ.fits(v.Activity, room.ID, start, weeks) {
					continue
				}
				st.occ.place(v.Activity, room.ID, start, weeks)
				*out = append(*out, assignment{activity: v.Activity, choice: choice{room: room.ID, start: start, weeks: weeks}})

				ok, timedOut := backtrack(ctx, st, vars, idx+1, out)
				if ok || timedOut {
					return ok, timedOut
				}

				*out = (*out)[:len(*out)-1]
				st.occ.unplace(v.Activity, room.ID, start, weeks)
			}
		}
	}
	return false, false
}
