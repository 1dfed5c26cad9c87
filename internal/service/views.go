package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
)

// SlotKey renders the "classId-period" key used by the status and comment maps.
func SlotKey(classID int64, period int) string {
	return fmt.Sprintf("%d-%d", classID, period)
}

func entriesOn(entries []models.ClassEntry, date time.Time, fn func(classID int64, e models.ClassEntry)) {
	key := calendar.Key(date)
	for _, e := range entries {
		if e.ClassTypeID == nil || calendar.Key(e.Date) != key {
			continue
		}
		fn(*e.ClassTypeID, e)
	}
}

// StatusForDate maps each slot scheduled on date to its completion flag.
func StatusForDate(entries []models.ClassEntry, date time.Time) map[string]bool {
	out := make(map[string]bool)
	entriesOn(entries, date, func(classID int64, e models.ClassEntry) {
		out[SlotKey(classID, e.Period)] = e.Status
	})
	return out
}

// CommentsForDate maps each slot scheduled on date to its notes.
func CommentsForDate(entries []models.ClassEntry, date time.Time) map[string]string {
	out := make(map[string]string)
	entriesOn(entries, date, func(classID int64, e models.ClassEntry) {
		out[SlotKey(classID, e.Period)] = e.Notes
	})
	return out
}

// ClassesForDate returns the distinct class ids scheduled on date, ascending.
func ClassesForDate(entries []models.ClassEntry, date time.Time) []int64 {
	seen := make(map[int64]struct{})
	out := []int64{}
	entriesOn(entries, date, func(classID int64, _ models.ClassEntry) {
		if _, ok := seen[classID]; ok {
			return
		}
		seen[classID] = struct{}{}
		out = append(out, classID)
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BuildDayViews derives one calendar cell per date in [start, end]. Holidays keep
// their entries visible in the maps but never report has_class.
func BuildDayViews(entries []models.ClassEntry, holidays []models.Holiday, start, end time.Time) []dto.DayView {
	names := make(map[string]string, len(holidays))
	for _, h := range holidays {
		names[calendar.Key(h.Date)] = h.Name
	}

	byDate := make(map[string][]models.ClassEntry)
	for _, e := range entries {
		k := calendar.Key(e.Date)
		byDate[k] = append(byDate[k], e)
	}

	var views []dto.DayView
	calendar.EachDay(start, end, func(d time.Time) bool {
		key := calendar.Key(d)
		dayEntries := byDate[key]
		name, holiday := names[key]
		classes := ClassesForDate(dayEntries, d)
		views = append(views, dto.DayView{
			Date:        key,
			Weekday:     calendar.DayName(d.Weekday()),
			IsWeekday:   calendar.IsWeekday(d),
			IsHoliday:   holiday,
			HolidayName: name,
			HasClass:    !holiday && len(classes) > 0,
			Classes:     classes,
			Status:      StatusForDate(dayEntries, d),
			Comments:    CommentsForDate(dayEntries, d),
		})
		return true
	})
	return views
}
