package worker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduling"
)

func newLifecycleMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type fakePickup struct {
	schedule *models.Schedule
	ok       bool
	err      error
	calls    int
}

func (f *fakePickup) Pickup(ctx context.Context, scheduleID string) (*models.Schedule, bool, error) {
	f.calls++
	return f.schedule, f.ok, f.err
}

type fakeCompleter struct {
	completed      []models.ScheduledActivity
	failReason     string
	completeCalled bool
	failCalled     bool
}

func (f *fakeCompleter) Complete(ctx context.Context, scheduleID string, placements []models.ScheduledActivity) error {
	f.completeCalled = true
	f.completed = placements
	return nil
}

func (f *fakeCompleter) Fail(ctx context.Context, scheduleID string, reason string) error {
	f.failCalled = true
	f.failReason = reason
	return nil
}

type fakeMetrics struct {
	observed     []scheduling.ResultKind
	queuedDepths []int
}

func (f *fakeMetrics) ObserveSolve(result scheduling.ResultKind, duration time.Duration) {
	f.observed = append(f.observed, result)
}

func (f *fakeMetrics) SetQueueDepth(depth int) {
	f.queuedDepths = append(f.queuedDepths, depth)
}

type fakeInstitutions struct {
	found bool
}

func (f *fakeInstitutions) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Institution, error) {
	if !f.found {
		return nil, sql.ErrNoRows
	}
	return &models.Institution{ID: id}, nil
}

type fakeRooms struct {
	rooms []models.Room
}

func (f *fakeRooms) ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Room, error) {
	return f.rooms, nil
}

type fakeGroups struct {
	groups []models.Group
}

func (f *fakeGroups) ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Group, error) {
	return f.groups, nil
}

type fakeActivities struct {
	activities []models.Activity
}

func (f *fakeActivities) ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Activity, error) {
	return f.activities, nil
}

func draftSchedule(t *testing.T) *models.Schedule {
	t.Helper()
	grid, err := models.EncodeTimeGrid(models.TimeGridConfig{Weeks: 1, Days: 1, TimeslotsPerDay: 1, MaxTimeslotsPerDayPerGroup: 1})
	require.NoError(t, err)
	return &models.Schedule{ID: "sched-1", InstitutionID: "inst-1", Status: models.ScheduleRunning, TimeGridConfig: grid}
}

// TestLifecycleRunDropsWhenNotDraftAtPickup is the regression test for the
// original bug: a redelivered job for a schedule that is no longer DRAFT
// must be dropped, not re-run through the solver.
func TestLifecycleRunDropsWhenNotDraftAtPickup(t *testing.T) {
	db, mock, cleanup := newLifecycleMockDB(t)
	defer cleanup()

	pickup := &fakePickup{ok: false}
	completer := &fakeCompleter{}
	metrics := &fakeMetrics{}

	lc := &Lifecycle{
		pickup:    pickup,
		completer: completer,
		gatherer:  newGatherer(db, &fakeInstitutions{found: true}, &fakeRooms{}, &fakeGroups{}, &fakeActivities{}),
		params:    scheduling.SolverParams{MaxDuration: time.Second, Workers: 1},
		metrics:   metrics,
		logger:    zap.NewNop(),
	}

	err := lc.Run(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 1, pickup.calls)
	assert.False(t, completer.completeCalled)
	assert.False(t, completer.failCalled)
	assert.Empty(t, metrics.observed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLifecycleRunFailsOnInstitutionNotFound(t *testing.T) {
	db, mock, cleanup := newLifecycleMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	sched := draftSchedule(t)
	pickup := &fakePickup{ok: true, schedule: sched}
	completer := &fakeCompleter{}
	metrics := &fakeMetrics{}

	lc := &Lifecycle{
		pickup:    pickup,
		completer: completer,
		gatherer:  newGatherer(db, &fakeInstitutions{found: false}, &fakeRooms{}, &fakeGroups{}, &fakeActivities{}),
		params:    scheduling.SolverParams{MaxDuration: time.Second, Workers: 1},
		metrics:   metrics,
		logger:    zap.NewNop(),
	}

	err := lc.Run(context.Background(), sched.ID)
	require.NoError(t, err)
	require.True(t, completer.failCalled)
	assert.Equal(t, "not_found", completer.failReason)
	require.Len(t, metrics.observed, 1)
	assert.Equal(t, scheduling.ResultSolverErr, metrics.observed[0])
}

func TestLifecycleRunFailsOnNoActivities(t *testing.T) {
	db, mock, cleanup := newLifecycleMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	sched := draftSchedule(t)
	pickup := &fakePickup{ok: true, schedule: sched}
	completer := &fakeCompleter{}
	metrics := &fakeMetrics{}

	lc := &Lifecycle{
		pickup:    pickup,
		completer: completer,
		gatherer:  newGatherer(db, &fakeInstitutions{found: true}, &fakeRooms{}, &fakeGroups{}, &fakeActivities{}),
		params:    scheduling.SolverParams{MaxDuration: time.Second, Workers: 1},
		metrics:   metrics,
		logger:    zap.NewNop(),
	}

	err := lc.Run(context.Background(), sched.ID)
	require.NoError(t, err)
	require.True(t, completer.failCalled)
	assert.Equal(t, "no_activities", completer.failReason)
	require.Len(t, metrics.observed, 1)
	assert.Equal(t, scheduling.ResultInfeasible, metrics.observed[0])
}

func TestLifecycleRunCompletesOnFeasibleInput(t *testing.T) {
	db, mock, cleanup := newLifecycleMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	sched := draftSchedule(t)
	pickup := &fakePickup{ok: true, schedule: sched}
	completer := &fakeCompleter{}
	metrics := &fakeMetrics{}

	rooms := &fakeRooms{rooms: []models.Room{{ID: "room-1"}}}
	groups := &fakeGroups{groups: []models.Group{{ID: "group-1"}}}
	activities := &fakeActivities{activities: []models.Activity{
		{ID: "act-1", GroupID: "group-1", ActivityType: models.ActivityCourse, DurationSlots: 1, Frequency: models.FrequencyWeekly},
	}}

	lc := &Lifecycle{
		pickup:    pickup,
		completer: completer,
		gatherer:  newGatherer(db, &fakeInstitutions{found: true}, rooms, groups, activities),
		params:    scheduling.SolverParams{MaxDuration: time.Second, Workers: 1},
		metrics:   metrics,
		logger:    zap.NewNop(),
	}

	err := lc.Run(context.Background(), sched.ID)
	require.NoError(t, err)
	require.True(t, completer.completeCalled)
	assert.False(t, completer.failCalled)
	require.Len(t, completer.completed, 1)
	assert.Equal(t, "act-1", completer.completed[0].ActivityID)
	require.Len(t, metrics.observed, 1)
	assert.Equal(t, scheduling.ResultFeasible, metrics.observed[0])
}
