package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

func TestClassTypeRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO class_types (name, color, created_at) VALUES ($1, $2, $3) RETURNING id")).
		WithArgs("2-4", "#00ff00", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	item := &models.ClassType{Name: "2-4", Color: "#00ff00"}
	require.NoError(t, repo.Create(context.Background(), item))
	assert.Equal(t, int64(12), item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTypeRepositoryExistingIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM class_types WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(3)))

	found, err := repo.ExistingIDs(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, found[1])
	assert.False(t, found[2])
	assert.True(t, found[3])

	empty, err := repo.ExistingIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
