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

func TestGroupRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "institution_id", "name", "parent_group_id", "created_at", "updated_at"}).
		AddRow("group-1", "inst-1", "Year 1", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, name, parent_group_id, created_at, updated_at FROM groups WHERE id = $1")).
		WithArgs("group-1").
		WillReturnRows(rows)

	group, err := repo.FindByID(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, "Year 1", group.Name)
	assert.Nil(t, group.ParentGroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListByInstitution(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	parent := "group-1"
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "institution_id", "name", "parent_group_id", "created_at", "updated_at"}).
		AddRow("group-1", "inst-1", "Year 1", nil, now, now).
		AddRow("group-2", "inst-1", "Year 1 - Section A", &parent, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, name, parent_group_id, created_at, updated_at FROM groups WHERE institution_id = $1 ORDER BY name ASC")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	groups, err := repo.ListByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO groups")).WillReturnResult(sqlmock.NewResult(1, 1))

	group := &models.Group{InstitutionID: "inst-1", Name: "Year 1"}
	err := repo.Create(context.Background(), group)
	require.NoError(t, err)
	assert.NotEmpty(t, group.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM groups WHERE id = $1")).
		WithArgs("group-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "group-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
