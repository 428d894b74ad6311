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

func TestActivityRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "institution_id", "course_id", "activity_type", "duration_slots", "group_id",
		"professor_id", "required_room_features", "frequency", "selected_timeslot", "created_at", "updated_at",
	}).AddRow("act-1", "inst-1", "course-1", models.ActivityCourse, 2, "group-1", nil, []byte(`[]`), models.FrequencyWeekly, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, course_id, activity_type, duration_slots, group_id, professor_id, required_room_features, frequency, selected_timeslot, created_at, updated_at FROM activities WHERE id = $1")).
		WithArgs("act-1").
		WillReturnRows(rows)

	activity, err := repo.FindByID(context.Background(), "act-1")
	require.NoError(t, err)
	assert.Equal(t, models.ActivityCourse, activity.ActivityType)
	assert.Equal(t, 2, activity.DurationSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListByInstitution(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "institution_id", "course_id", "activity_type", "duration_slots", "group_id",
		"professor_id", "required_room_features", "frequency", "selected_timeslot", "created_at", "updated_at",
	}).AddRow("act-1", "inst-1", "course-1", models.ActivityCourse, 1, "group-1", nil, []byte(`[]`), models.FrequencyWeekly, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, course_id, activity_type, duration_slots, group_id, professor_id, required_room_features, frequency, selected_timeslot, created_at, updated_at FROM activities WHERE institution_id = $1 ORDER BY created_at ASC")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	activities, err := repo.ListByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Len(t, activities, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activities")).WillReturnResult(sqlmock.NewResult(1, 1))

	activity := &models.Activity{
		InstitutionID: "inst-1",
		CourseID:      "course-1",
		ActivityType:  models.ActivityCourse,
		DurationSlots: 1,
		GroupID:       "group-1",
		Frequency:     models.FrequencyWeekly,
	}
	err := repo.Create(context.Background(), activity)
	require.NoError(t, err)
	assert.NotEmpty(t, activity.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activities WHERE id = $1")).
		WithArgs("act-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "act-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
