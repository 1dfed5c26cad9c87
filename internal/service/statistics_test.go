package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

func TestComputeStatisticsReferenceExample(t *testing.T) {
	entries := []models.ClassEntry{
		{Date: mustDate(t, "2025-09-01"), ClassTypeID: i64(1), Period: 1, Status: true},
		{Date: mustDate(t, "2025-09-01"), ClassTypeID: i64(2), Period: 2, Status: false},
		{Date: mustDate(t, "2025-09-02"), ClassTypeID: i64(1), Period: 1, Status: true},
	}

	stats := ComputeStatistics(entries, mustDate(t, "2025-09-01"), mustDate(t, "2025-09-02"), mustDate(t, "2025-09-03"))

	assert.Equal(t, 2, stats.TotalWeekdays)
	assert.Equal(t, 1, stats.CompletedWeekdays)
	assert.Equal(t, 1, stats.RemainingWeekdays)
	assert.Equal(t, 3, stats.TotalClasses)
	assert.Equal(t, 2, stats.CompletedClasses)
	assert.Equal(t, models.ClassStat{Total: 2, Completed: 2}, stats.ClassStats[1])
	assert.Equal(t, models.ClassStat{Total: 1, Completed: 0}, stats.ClassStats[2])
	assert.Equal(t, 0, Percentage(stats.ClassStats[2].Completed, stats.ClassStats[2].Total))
}

func TestComputeStatisticsTodayAndRangeBounds(t *testing.T) {
	entries := []models.ClassEntry{
		{Date: mustDate(t, "2025-08-29"), ClassTypeID: i64(1), Period: 1, Status: true},
		{Date: mustDate(t, "2025-09-01"), ClassTypeID: i64(1), Period: 1, Status: true},
		{Date: mustDate(t, "2025-09-02"), ClassTypeID: i64(1), Period: 1, Status: true},
		{Date: mustDate(t, "2025-09-03"), ClassTypeID: nil, Period: 1, Status: false},
	}

	// today itself never counts as completed even when every entry is done.
	stats := ComputeStatistics(entries, mustDate(t, "2025-09-01"), mustDate(t, "2025-09-03"), mustDate(t, "2025-09-02"))
	assert.Equal(t, 3, stats.TotalWeekdays)
	assert.Equal(t, 1, stats.CompletedWeekdays)
	assert.Equal(t, 2, stats.RemainingWeekdays)
	assert.Equal(t, 2, stats.TotalClasses)
	assert.Len(t, stats.ClassStats, 1)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, mustDate(t, "2025-09-01"), mustDate(t, "2025-09-30"), mustDate(t, "2025-10-01"))
	assert.Zero(t, stats.TotalWeekdays)
	assert.NotNil(t, stats.ClassStats)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 0, Percentage(0, 1))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 100, Percentage(7, 7))
}
