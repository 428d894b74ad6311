package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduling"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

// JobType identifies a schedule-generation job on the shared queue.
const JobType = "schedule.generate"

type schedulePickerUpper interface {
	Pickup(ctx context.Context, scheduleID string) (*models.Schedule, bool, error)
}

type scheduleCompleter interface {
	Complete(ctx context.Context, scheduleID string, placements []models.ScheduledActivity) error
	Fail(ctx context.Context, scheduleID string, reason string) error
}

// solverMetrics receives the run-level observability SPEC_FULL.md §8
// promises. A nil *service.MetricsService is safe to call and is a no-op, matching
// the teacher's nil-receiver metrics idiom.
type solverMetrics interface {
	ObserveSolve(result scheduling.ResultKind, duration time.Duration)
	SetQueueDepth(depth int)
}

// Lifecycle drives one schedule generation run from DRAFT/RUNNING through to
// COMPLETED or FAILED (spec.md §4.6, §4.8, §5 Worker Plane). It is the
// handler registered with the job queue that ScheduleService.Create
// enqueues into.
type Lifecycle struct {
	pickup    schedulePickerUpper
	completer scheduleCompleter
	gatherer  *gatherer
	params    scheduling.SolverParams
	metrics   solverMetrics
	logger    *zap.Logger
}

// scheduleStore is satisfied by *service.ScheduleService and is the only
// dependency NewLifecycle needs for the control-plane side of the
// handshake: conditionally pick up, then complete or fail a schedule.
type scheduleStore interface {
	schedulePickerUpper
	scheduleCompleter
}

// NewLifecycle builds a Lifecycle. db is used solely for the gatherer's
// read-only snapshot transaction (spec.md §4.9); schedules owns the actual
// state machine.
func NewLifecycle(schedules scheduleStore, db *sqlx.DB, institutions institutionGetter, rooms roomLister, groups groupLister, activities activityLister, params scheduling.SolverParams, metrics solverMetrics, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		pickup:    schedules,
		completer: schedules,
		gatherer:  newGatherer(db, institutions, rooms, groups, activities),
		params:    params,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle is a pkg/jobs.Handler: it loads the schedule identified by the job
// payload, gathers its institution's input, runs the solver, and writes the
// outcome back through ScheduleService.
func (l *Lifecycle) Handle(ctx context.Context, job jobs.Job) error {
	scheduleID, ok := job.Payload.(string)
	if !ok || scheduleID == "" {
		return fmt.Errorf("schedule generation job %s missing schedule id payload", job.ID)
	}
	return l.Run(ctx, scheduleID)
}

// Run executes one generation attempt synchronously. Exported so tests and
// alternative queue transports can drive it directly.
//
// The DRAFT → RUNNING transition happens here, atomically and conditionally
// on the schedule still being in DRAFT (spec.md §4.8). A redelivered queue
// message (at-least-once delivery, §4.10) finds the schedule already
// RUNNING or terminal and is dropped as a no-op rather than re-running the
// solver and clobbering a result that may already be persisted.
func (l *Lifecycle) Run(ctx context.Context, scheduleID string) error {
	schedule, ok, err := l.pickup.Pickup(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("pick up schedule %s: %w", scheduleID, err)
	}
	if !ok {
		l.logger.Info("dropping schedule generation job: not in DRAFT", zap.String("schedule_id", scheduleID))
		return nil
	}

	started := time.Now()

	grid, err := schedule.Grid()
	if err != nil {
		return l.fail(ctx, scheduleID, started, scheduling.ResultSolverErr, fmt.Sprintf("invalid time grid: %v", err))
	}

	input, err := l.gatherer.gather(ctx, schedule.InstitutionID)
	if err != nil {
		var ge gatherError
		if errors.As(err, &ge) {
			kind := scheduling.ResultSolverErr
			if ge == errNoActivities {
				kind = scheduling.ResultInfeasible
			}
			return l.fail(ctx, scheduleID, started, kind, ge.Error())
		}
		return l.fail(ctx, scheduleID, started, scheduling.ResultSolverErr, fmt.Sprintf("gather input: %v", err))
	}

	schedGrid := scheduling.TimeGrid{
		Weeks:                      grid.Weeks,
		Days:                       grid.Days,
		TimeslotsPerDay:            grid.TimeslotsPerDay,
		MaxTimeslotsPerDayPerGroup: grid.MaxTimeslotsPerDayPerGroup,
	}

	result, err := scheduling.Generate(ctx, schedGrid, input.groups, input.activities, input.rooms, l.params)
	if err != nil {
		if schedErr, ok := err.(*scheduling.Error); ok {
			return l.fail(ctx, scheduleID, started, scheduling.ResultSolverErr, schedErr.Error())
		}
		return l.fail(ctx, scheduleID, started, scheduling.ResultSolverErr, err.Error())
	}

	switch result.Kind {
	case scheduling.ResultFeasible:
		placements := make([]models.ScheduledActivity, 0, len(result.Placements))
		for _, p := range result.Placements {
			weeks, err := models.EncodeWeeks(p.ActiveWeeks)
			if err != nil {
				return l.fail(ctx, scheduleID, started, scheduling.ResultSolverErr, fmt.Sprintf("encode placement weeks: %v", err))
			}
			placements = append(placements, models.ScheduledActivity{
				ScheduleID:    scheduleID,
				ActivityID:    p.ActivityID,
				RoomID:        p.RoomID,
				StartTimeslot: p.StartTimeslot,
				ActiveWeeks:   weeks,
			})
		}
		if err := l.completer.Complete(ctx, scheduleID, placements); err != nil {
			return l.fail(ctx, scheduleID, started, scheduling.ResultSolverErr, fmt.Sprintf("persist_error:%v", err))
		}
		l.observe(result.Kind, started)
		l.logger.Info("schedule generation completed", zap.String("schedule_id", scheduleID), zap.Int("placements", len(placements)))
		return nil
	default:
		reason := result.Detail
		if reason == "" || reason == string(result.Kind) {
			reason = string(result.Kind)
		} else {
			reason = fmt.Sprintf("%s:%s", result.Kind, result.Detail)
		}
		return l.fail(ctx, scheduleID, started, result.Kind, reason)
	}
}

func (l *Lifecycle) fail(ctx context.Context, scheduleID string, started time.Time, kind scheduling.ResultKind, reason string) error {
	l.observe(kind, started)
	l.logger.Warn("schedule generation failed", zap.String("schedule_id", scheduleID), zap.String("reason", reason))
	if err := l.completer.Fail(ctx, scheduleID, reason); err != nil {
		return fmt.Errorf("mark schedule %s failed: %w", scheduleID, err)
	}
	return nil
}

func (l *Lifecycle) observe(kind scheduling.ResultKind, started time.Time) {
	if l.metrics == nil {
		return
	}
	l.metrics.ObserveSolve(kind, time.Since(started))
}
