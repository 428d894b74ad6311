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

func TestRoomRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "institution_id", "name", "capacity", "features", "created_at", "updated_at"}).
		AddRow("room-1", "inst-1", "Lab A", 30, []byte(`["projector"]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, name, capacity, features, created_at, updated_at FROM rooms WHERE id = $1")).
		WithArgs("room-1").
		WillReturnRows(rows)

	room, err := repo.FindByID(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, "Lab A", room.Name)
	features, err := room.FeatureList()
	require.NoError(t, err)
	assert.Equal(t, []string{"projector"}, features)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListByInstitution(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "institution_id", "name", "capacity", "features", "created_at", "updated_at"}).
		AddRow("room-1", "inst-1", "Lab A", 30, []byte(`[]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, name, capacity, features, created_at, updated_at FROM rooms WHERE institution_id = $1 ORDER BY name ASC")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	rooms, err := repo.ListByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).WillReturnResult(sqlmock.NewResult(1, 1))

	features, err := models.EncodeFeatures([]string{"whiteboard"})
	require.NoError(t, err)
	room := &models.Room{InstitutionID: "inst-1", Name: "Lab A", Capacity: 30, Features: features}
	err = repo.Create(context.Background(), room)
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
