package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

func viewEntries(t *testing.T) []models.ClassEntry {
	return []models.ClassEntry{
		{ClassTypeID: i64(3), Date: mustDate(t, "2025-09-01"), Period: 1, Status: true, Notes: "done"},
		{ClassTypeID: i64(1), Date: mustDate(t, "2025-09-01"), Period: 2},
		{ClassTypeID: i64(3), Date: mustDate(t, "2025-09-01"), Period: 4, Notes: "lab"},
		{ClassTypeID: nil, Date: mustDate(t, "2025-09-01"), Period: 5, Notes: "free"},
		{ClassTypeID: i64(2), Date: mustDate(t, "2025-09-02"), Period: 1},
	}
}

func TestStatusAndCommentsForDate(t *testing.T) {
	entries := viewEntries(t)
	d := mustDate(t, "2025-09-01")

	assert.Equal(t, map[string]bool{"3-1": true, "1-2": false, "3-4": false}, StatusForDate(entries, d))
	assert.Equal(t, map[string]string{"3-1": "done", "1-2": "", "3-4": "lab"}, CommentsForDate(entries, d))
	assert.Equal(t, []int64{1, 3}, ClassesForDate(entries, d))
	assert.Empty(t, ClassesForDate(entries, mustDate(t, "2025-09-03")))
}

func TestBuildDayViewsSuppressesClassesOnHolidays(t *testing.T) {
	holidays := []models.Holiday{{Date: mustDate(t, "2025-09-02"), Name: "School Founding Day"}}
	views := BuildDayViews(viewEntries(t), holidays, mustDate(t, "2025-08-31"), mustDate(t, "2025-09-02"))
	require.Len(t, views, 3)

	sunday := views[0]
	assert.Equal(t, "2025-08-31", sunday.Date)
	assert.Equal(t, "sunday", sunday.Weekday)
	assert.False(t, sunday.IsWeekday)
	assert.False(t, sunday.HasClass)
	assert.Empty(t, sunday.Classes)

	monday := views[1]
	assert.True(t, monday.HasClass)
	assert.Equal(t, []int64{1, 3}, monday.Classes)
	assert.True(t, monday.Status["3-1"])

	tuesday := views[2]
	assert.True(t, tuesday.IsHoliday)
	assert.Equal(t, "School Founding Day", tuesday.HolidayName)
	assert.False(t, tuesday.HasClass)
	assert.Equal(t, []int64{2}, tuesday.Classes)
}

func TestBuildDayViewsAcrossMidnightDSTSwitch(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("timezone unavailable: %v", err)
	}
	holidays := []models.Holiday{{Date: mustDate(t, "2018-11-05"), Name: "Teacher Workday"}}
	views := BuildDayViews(nil, holidays, time.Date(2018, 11, 3, 0, 0, 0, 0, saoPaulo), time.Date(2018, 11, 5, 0, 0, 0, 0, saoPaulo))
	require.Len(t, views, 3)
	assert.Equal(t, "2018-11-03", views[0].Date)
	assert.Equal(t, "2018-11-04", views[1].Date)
	assert.Equal(t, "sunday", views[1].Weekday)
	assert.Equal(t, "2018-11-05", views[2].Date)
	assert.True(t, views[2].IsHoliday)
}
