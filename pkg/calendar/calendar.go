// Package calendar holds the date arithmetic shared by the scheduler: date keys,
// weekday and holiday membership, and range enumeration.
//
// Every conversion between a time.Time and its "YYYY-MM-DD" key goes through Key
// and Parse. Dates are civil dates held as UTC midnight, so no zone offset or DST
// transition can move them. A timezone only matters when deciding which date
// "now" is, which Today handles.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Layout is the canonical calendar-date format used for keys and payloads.
const Layout = "2006-01-02"

var dayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Key formats the calendar date of t.
func Key(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// Parse reads a YYYY-MM-DD key as a civil date.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// Normalize returns the civil date of t's wall clock in its own location.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current civil date in loc. A nil loc means time.Local.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Normalize(time.Now().In(loc))
}

// SameDay reports whether a and b share a calendar date key.
func SameDay(a, b time.Time) bool {
	return Key(a) == Key(b)
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsHoliday reports whether the calendar date of t is in the set.
func IsHoliday(t time.Time, holidays HolidaySet) bool {
	return holidays.Contains(t)
}

// DaysInclusive counts calendar days in [start, end]. It returns 0 when end < start.
func DaysInclusive(start, end time.Time) int {
	s := Normalize(start)
	e := Normalize(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// EachDay calls fn for every date in [start, end] in ascending order, stopping
// early when fn returns false. Dates are passed as civil dates.
func EachDay(start, end time.Time, fn func(time.Time) bool) {
	y, m, d := Normalize(start).Date()
	last := Normalize(end)
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, time.UTC)
		if day.After(last) || !fn(day) {
			return
		}
	}
}

// EnumerateWeekdays returns every Monday-Friday date in [start, end] that is not
// a holiday, ascending.
func EnumerateWeekdays(start, end time.Time, holidays HolidaySet) ([]time.Time, error) {
	start = Normalize(start)
	end = Normalize(end)
	if end.Before(start) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start,
		Until:     end,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
	})
	if err != nil {
		return nil, fmt.Errorf("build weekday rule: %w", err)
	}

	occurrences := rule.All()
	out := make([]time.Time, 0, len(occurrences))
	for _, occ := range occurrences {
		if holidays.Contains(occ) {
			continue
		}
		out = append(out, occ)
	}
	return out, nil
}

// DayName returns the lower-case English weekday name used by weekly templates.
func DayName(wd time.Weekday) string {
	return dayNames[wd]
}

// ParseDayName maps a weekday name (case-insensitive) back to time.Weekday.
func ParseDayName(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range dayNames {
		if candidate == name {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// HolidaySet is a set of calendar-date keys.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from date keys. Keys are trimmed; blanks are skipped.
func NewHolidaySet(keys ...string) HolidaySet {
	set := make(HolidaySet, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
	return set
}

// Add inserts the calendar date of t.
func (h HolidaySet) Add(t time.Time) {
	h[Key(t)] = struct{}{}
}

// Contains reports whether the calendar date of t is in the set. A nil set is empty.
func (h HolidaySet) Contains(t time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h[Key(t)]
	return ok
}

// ContainsKey reports membership of a raw date key.
func (h HolidaySet) ContainsKey(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h[key]
	return ok
}

// Keys returns the set's keys sorted ascending.
func (h HolidaySet) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
