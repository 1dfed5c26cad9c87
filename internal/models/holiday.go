package models

import "time"

// Holiday marks a date that suppresses classes on the calendar and in statistics.
type Holiday struct {
	ID        string    `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DefaultHolidayName labels holidays saved without a name.
const DefaultHolidayName = "공휴일"

// HolidayFilter narrows holiday listings; zero values mean "all".
type HolidayFilter struct {
	Year  int
	Month int
}
