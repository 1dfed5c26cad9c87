package service

import (
	"time"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
)

// Materialize expands the weekly template into unsaved entries for every date in
// [start, end]: one entry per (date, period) whose template cell names a class.
// Holidays are not skipped here; they are applied when reading.
func Materialize(tpl models.WeeklyTemplate, semesterRangeID *string, start, end time.Time) []models.ClassEntry {
	if calendar.Normalize(end).Before(calendar.Normalize(start)) {
		return nil
	}

	var entries []models.ClassEntry
	calendar.EachDay(start, end, func(d time.Time) bool {
		day, ok := tpl[d.Weekday()]
		if !ok {
			return true
		}
		for period := 1; period <= models.PeriodsPerDay; period++ {
			classID := day.ClassAt(period)
			if classID == nil {
				continue
			}
			id := *classID
			entries = append(entries, models.ClassEntry{
				ClassTypeID:     &id,
				SemesterRangeID: semesterRangeID,
				Date:            d,
				Period:          period,
			})
		}
		return true
	})
	return entries
}

func slotKeyOf(e models.ClassEntry) (models.SlotKey, bool) {
	if e.ClassTypeID == nil {
		return models.SlotKey{}, false
	}
	return models.SlotKey{Date: calendar.Key(e.Date), ClassTypeID: *e.ClassTypeID, Period: e.Period}, true
}

// ApplyPreservation copies status and notes from existing entries onto generated
// entries occupying the same (date, class, period) slot. It returns how many
// generated entries inherited state.
func ApplyPreservation(generated, existing []models.ClassEntry) int {
	if len(existing) == 0 {
		return 0
	}
	prior := make(map[models.SlotKey]models.ClassEntry, len(existing))
	for _, e := range existing {
		if key, ok := slotKeyOf(e); ok {
			prior[key] = e
		}
	}

	preserved := 0
	for i := range generated {
		key, ok := slotKeyOf(generated[i])
		if !ok {
			continue
		}
		old, found := prior[key]
		if !found {
			continue
		}
		generated[i].Status = old.Status
		generated[i].Notes = old.Notes
		generated[i].CreatedAt = old.CreatedAt
		if old.Status || old.Notes != "" {
			preserved++
		}
	}
	return preserved
}
