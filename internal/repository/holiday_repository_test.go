package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

func TestHolidayRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND EXTRACT(YEAR FROM date) = $1 AND EXTRACT(MONTH FROM date) = $2 ORDER BY date ASC")).
		WithArgs(2025, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "name", "created_at"}).
			AddRow("h-1", day("2025-10-03"), "개천절", time.Now()).
			AddRow("h-2", day("2025-10-09"), "한글날", time.Now()))

	items, err := repo.List(context.Background(), models.HolidayFilter{Year: 2025, Month: 10})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "한글날", items[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays")).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name")).
		WithArgs(sqlmock.AnyArg(), "2025-12-25", "기독탄신일", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "name", "created_at"}).
			AddRow("h-9", day("2025-12-25"), "기독탄신일", time.Now()))
	mock.ExpectCommit()

	holidays := []models.Holiday{{Date: day("2025-12-25"), Name: "기독탄신일"}}
	require.NoError(t, repo.ReplaceAll(context.Background(), holidays))
	assert.Equal(t, "h-9", holidays[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE date = $1")).
		WithArgs("2025-01-01").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByDate(context.Background(), day("2025-01-01"))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
