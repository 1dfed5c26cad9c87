package models

import "time"

// PeriodsPerDay is the number of numbered class slots in a day.
const PeriodsPerDay = 7

// ClassEntry is the dated, per-period record of a scheduled class.
type ClassEntry struct {
	ID              string    `db:"id" json:"id"`
	ClassTypeID     *int64    `db:"class_type_id" json:"class_type_id"`
	SemesterRangeID *string   `db:"semester_range_id" json:"semester_range_id,omitempty"`
	Date            time.Time `db:"date" json:"date"`
	Period          int       `db:"period" json:"period"`
	Status          bool      `db:"status" json:"status"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ClassEntryDetail joins an entry with its class type display data.
type ClassEntryDetail struct {
	ClassEntry
	ClassName  *string `db:"class_name" json:"class_name,omitempty"`
	ClassColor *string `db:"class_color" json:"class_color,omitempty"`
}

// SlotKey identifies an entry under the upsert rule.
type SlotKey struct {
	Date        string
	ClassTypeID int64
	Period      int
}

// ValidPeriod reports whether p is a period number in 1..PeriodsPerDay.
func ValidPeriod(p int) bool {
	return p >= 1 && p <= PeriodsPerDay
}

// ClassEntryFilter bounds range queries.
type ClassEntryFilter struct {
	StartDate time.Time
	EndDate   time.Time
}
