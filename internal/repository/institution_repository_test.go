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

func TestInstitutionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "time_grid_config", "created_at", "updated_at"}).
		AddRow("inst-1", "Acme University", []byte(`{}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, time_grid_config, created_at, updated_at FROM institutions WHERE id = $1")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	inst, err := repo.FindByID(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme University", inst.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstitutionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, time_grid_config, created_at, updated_at FROM institutions WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(assert.AnError)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstitutionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO institutions")).WillReturnResult(sqlmock.NewResult(1, 1))

	inst := &models.Institution{Name: "Acme University"}
	err := repo.Create(context.Background(), inst)
	require.NoError(t, err)
	assert.NotEmpty(t, inst.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstitutionRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "time_grid_config", "created_at", "updated_at"}).
		AddRow("inst-1", "Acme University", []byte(`{}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, time_grid_config, created_at, updated_at FROM institutions WHERE 1=1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM institutions WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	institutions, total, err := repo.List(context.Background(), models.InstitutionFilter{})
	require.NoError(t, err)
	assert.Len(t, institutions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstitutionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM institutions WHERE id = $1")).
		WithArgs("inst-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
