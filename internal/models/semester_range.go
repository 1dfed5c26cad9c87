package models

import "time"

// SemesterRange is the active start/end window the calendar and statistics operate over.
type SemesterRange struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSemesterName is used when a range is saved without a name.
const DefaultSemesterName = "Current Semester"
