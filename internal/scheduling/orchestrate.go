package scheduling

import "context"

// Generate runs the full core pipeline (C2 ancestry, C3/C4 variable model,
// C6 solver) for one institution's worth of input and returns a Result.
//
// Failures detected before the solver runs (invalid input, a cyclic group
// graph, an activity with no eligible room, an unsatisfiable pin) are
// returned as *Error rather than folded into Result, because the worker's
// lifecycle manager needs to distinguish "never reached the solver" from
// "the solver ran and proved infeasible" for telemetry (spec.md §4.6's
// Timeout/Infeasible distinction) even though both ultimately produce a
// FAILED schedule.
func Generate(ctx context.Context, grid TimeGrid, groups []Group, activities []Activity, rooms []Room, params SolverParams) (Result, error) {
	if len(activities) == 0 {
		return Result{}, invalidInput("no activities")
	}

	anc, err := ResolveAncestry(groups)
	if err != nil {
		return Result{}, err
	}

	vars, err := BuildVariables(grid, activities, rooms)
	if err != nil {
		return Result{}, err
	}

	return Solve(ctx, grid, anc, vars, params), nil
}
