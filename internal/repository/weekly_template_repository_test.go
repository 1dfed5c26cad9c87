package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

func TestWeeklyTemplateRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyTemplateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_template_slots")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_template_slots (day_of_week, period, class_type_id) VALUES ($1, $2, $3)")).
		WithArgs(1, 3, int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_template_slots")).
		WithArgs(5, 7, int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), []models.TemplateSlot{
		{DayOfWeek: 1, Period: 3, ClassTypeID: 4},
		{DayOfWeek: 5, Period: 7, ClassTypeID: 11},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyTemplateRepositoryReplaceRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyTemplateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_template_slots")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_template_slots")).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), []models.TemplateSlot{{DayOfWeek: 1, Period: 1, ClassTypeID: 99}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert template slot")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyTemplateRepositoryListSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT day_of_week, period, class_type_id FROM weekly_template_slots")).
		WillReturnRows(sqlmock.NewRows([]string{"day_of_week", "period", "class_type_id"}).AddRow(2, 1, int64(1)))

	slots, err := repo.ListSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.TemplateSlot{{DayOfWeek: 2, Period: 1, ClassTypeID: 1}}, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}
