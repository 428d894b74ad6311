package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).WillReturnResult(sqlmock.NewResult(1, 1))

	sched := &models.Schedule{InstitutionID: "inst-1", Status: models.ScheduleDraft}
	err := repo.Create(context.Background(), sched)
	require.NoError(t, err)
	assert.NotEmpty(t, sched.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryTransitionStatusSucceeds(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("sched-1", models.ScheduleDraft, models.ScheduleRunning, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(context.Background(), "sched-1", models.ScheduleDraft, models.ScheduleRunning)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestScheduleRepositoryTransitionStatusNoMatch is the case that matters for
// at-least-once queue redelivery (spec.md §4.10): a second pickup attempt on
// an already-RUNNING schedule must affect zero rows, not error.
func TestScheduleRepositoryTransitionStatusNoMatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("sched-1", models.ScheduleDraft, models.ScheduleRunning, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), "sched-1", models.ScheduleDraft, models.ScheduleRunning)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	reason := "infeasible"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("sched-1", models.ScheduleFailed, &reason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "sched-1", models.ScheduleFailed, &reason)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "institution_id", "time_grid_config", "timestamp", "status", "error_message", "created_at", "updated_at"}).
		AddRow("sched-1", "inst-1", []byte(`{}`), now, models.ScheduleDraft, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, time_grid_config, timestamp, status, error_message, created_at, updated_at FROM schedules WHERE id = $1")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	sched, err := repo.FindByID(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleDraft, sched.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceScheduledActivities(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_activities WHERE schedule_id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_activities")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	placements := []models.ScheduledActivity{
		{ActivityID: "act-1", RoomID: "room-1", StartTimeslot: 3, ActiveWeeks: []byte(`[1,2,3]`)},
	}
	err := repo.ReplaceScheduledActivities(context.Background(), "sched-1", placements)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListScheduledActivities(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "activity_id", "room_id", "start_timeslot", "active_weeks", "created_at"}).
		AddRow("p1", "sched-1", "act-1", "room-1", 2, []byte(`[1]`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, activity_id, room_id, start_timeslot, active_weeks, created_at FROM scheduled_activities WHERE schedule_id = $1 ORDER BY start_timeslot ASC")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	placements, err := repo.ListScheduledActivities(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Len(t, placements, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListStaleRunning(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	cutoff := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "institution_id", "time_grid_config", "timestamp", "status", "error_message", "created_at", "updated_at"}).
		AddRow("sched-1", "inst-1", []byte(`{}`), cutoff, models.ScheduleRunning, nil, cutoff, cutoff)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, time_grid_config, timestamp, status, error_message, created_at, updated_at FROM schedules WHERE status = $1 AND updated_at < $2")).
		WithArgs(models.ScheduleRunning, cutoff).
		WillReturnRows(rows)

	stale, err := repo.ListStaleRunning(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Len(t, stale, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
