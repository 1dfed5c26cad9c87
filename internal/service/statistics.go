package service

import (
	"math"
	"time"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
)

// ComputeStatistics reduces entries dated in [rangeStart, rangeEnd].
//
// A date counts as a weekday when it has at least one entry, and as completed
// when it is strictly before today and every entry on it is done. Class totals
// only count entries that name a class.
func ComputeStatistics(entries []models.ClassEntry, rangeStart, rangeEnd, today time.Time) models.Statistics {
	startKey := calendar.Key(rangeStart)
	endKey := calendar.Key(rangeEnd)
	todayKey := calendar.Key(today)

	stats := models.Statistics{ClassStats: make(map[int64]models.ClassStat)}
	allDone := make(map[string]bool)

	for _, e := range entries {
		key := calendar.Key(e.Date)
		if key < startKey || key > endKey {
			continue
		}

		done, seen := allDone[key]
		if !seen {
			done = true
		}
		allDone[key] = done && e.Status

		if e.ClassTypeID == nil {
			continue
		}
		stats.TotalClasses++
		cs := stats.ClassStats[*e.ClassTypeID]
		cs.Total++
		if e.Status {
			stats.CompletedClasses++
			cs.Completed++
		}
		stats.ClassStats[*e.ClassTypeID] = cs
	}

	stats.TotalWeekdays = len(allDone)
	for key, done := range allDone {
		if done && key < todayKey {
			stats.CompletedWeekdays++
		}
	}
	stats.RemainingWeekdays = stats.TotalWeekdays - stats.CompletedWeekdays
	return stats
}

// Percentage returns round(completed/total*100), or 0 when total is 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
