package models

import "time"

// DaySchedule maps period (index period-1) to an optional class type id.
type DaySchedule [PeriodsPerDay]*int64

// ClassAt returns the class type scheduled for period, or nil.
func (d DaySchedule) ClassAt(period int) *int64 {
	if !ValidPeriod(period) {
		return nil
	}
	return d[period-1]
}

// WeeklyTemplate maps each weekday to its period assignments. Missing days have no classes.
type WeeklyTemplate map[time.Weekday]DaySchedule

// TemplateSlot is the persisted form of one non-empty template cell.
type TemplateSlot struct {
	DayOfWeek   int   `db:"day_of_week" json:"day_of_week"`
	Period      int   `db:"period" json:"period"`
	ClassTypeID int64 `db:"class_type_id" json:"class_type_id"`
}

// TemplateFromSlots rebuilds a template from stored slots, skipping invalid cells.
func TemplateFromSlots(slots []TemplateSlot) WeeklyTemplate {
	tpl := make(WeeklyTemplate)
	for _, slot := range slots {
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 || !ValidPeriod(slot.Period) {
			continue
		}
		wd := time.Weekday(slot.DayOfWeek)
		day := tpl[wd]
		id := slot.ClassTypeID
		day[slot.Period-1] = &id
		tpl[wd] = day
	}
	return tpl
}

// Slots flattens the template into its non-empty cells ordered by day then period.
func (t WeeklyTemplate) Slots() []TemplateSlot {
	var slots []TemplateSlot
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day, ok := t[wd]
		if !ok {
			continue
		}
		for i, classID := range day {
			if classID == nil {
				continue
			}
			slots = append(slots, TemplateSlot{DayOfWeek: int(wd), Period: i + 1, ClassTypeID: *classID})
		}
	}
	return slots
}

// MaterializePolicy decides what happens to status and notes when a range is regenerated.
type MaterializePolicy string

const (
	PolicyPreserveExisting MaterializePolicy = "preserve-existing"
	PolicyReplaceAll       MaterializePolicy = "replace-all"
)

// Valid reports whether p is a known policy.
func (p MaterializePolicy) Valid() bool {
	return p == PolicyPreserveExisting || p == PolicyReplaceAll
}
