package dto

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
)

// WeeklyTemplatePayload is the wire form of a weekly template:
// day name (sunday..saturday) -> period ("1".."7") -> class type id or null.
type WeeklyTemplatePayload map[string]map[string]*int64

// ToTemplate validates day names and period keys and converts the payload.
func (p WeeklyTemplatePayload) ToTemplate() (models.WeeklyTemplate, error) {
	tpl := make(models.WeeklyTemplate, len(p))
	for dayName, periods := range p {
		wd, ok := calendar.ParseDayName(dayName)
		if !ok {
			return nil, fmt.Errorf("unknown day %q", dayName)
		}
		var day models.DaySchedule
		for rawPeriod, classID := range periods {
			period, err := strconv.Atoi(rawPeriod)
			if err != nil || !models.ValidPeriod(period) {
				return nil, fmt.Errorf("period %q on %s must be between 1 and %d", rawPeriod, dayName, models.PeriodsPerDay)
			}
			if classID != nil {
				id := *classID
				day[period-1] = &id
			}
		}
		tpl[wd] = day
	}
	return tpl, nil
}

// TemplatePayload renders a template with every period key present. Monday to
// Friday are always listed; weekend days only when they carry classes.
func TemplatePayload(tpl models.WeeklyTemplate) WeeklyTemplatePayload {
	out := make(WeeklyTemplatePayload)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day, ok := tpl[wd]
		if !ok && (wd == time.Sunday || wd == time.Saturday) {
			continue
		}
		periods := make(map[string]*int64, models.PeriodsPerDay)
		for period := 1; period <= models.PeriodsPerDay; period++ {
			periods[strconv.Itoa(period)] = day.ClassAt(period)
		}
		out[calendar.DayName(wd)] = periods
	}
	return out
}

// MaterializeRequest regenerates class entries for a date range.
type MaterializeRequest struct {
	StartDate       string                `json:"start_date" validate:"required"`
	EndDate         string                `json:"end_date" validate:"required"`
	Policy          string                `json:"policy" validate:"omitempty,oneof=preserve-existing replace-all"`
	SemesterRangeID string                `json:"semester_range_id" validate:"omitempty,uuid"`
	Template        WeeklyTemplatePayload `json:"template,omitempty"`
}

// MaterializeResult summarises a materialization run.
type MaterializeResult struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Policy    string `json:"policy"`
	Deleted   int    `json:"deleted"`
	Created   int    `json:"created"`
	Preserved int    `json:"preserved"`
}

// ClassTypeRequest creates or updates a class type.
type ClassTypeRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// SemesterRangeRequest replaces the current semester range wholesale.
type SemesterRangeRequest struct {
	Name      string `json:"name" validate:"omitempty,max=100"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// SemesterRangeResponse renders a range with date-only strings.
type SemesterRangeResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// NewSemesterRangeResponse converts a stored range.
func NewSemesterRangeResponse(r models.SemesterRange) SemesterRangeResponse {
	return SemesterRangeResponse{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: calendar.Key(r.StartDate),
		EndDate:   calendar.Key(r.EndDate),
		Days:      calendar.DaysInclusive(r.StartDate, r.EndDate),
	}
}

// ClassEntryResponse renders an entry with a date-only string.
type ClassEntryResponse struct {
	ID              string  `json:"id"`
	ClassTypeID     *int64  `json:"class_type_id"`
	SemesterRangeID *string `json:"semester_range_id,omitempty"`
	Date            string  `json:"date"`
	Period          int     `json:"period"`
	Status          bool    `json:"status"`
	Notes           string  `json:"notes"`
	ClassName       *string `json:"class_name,omitempty"`
	ClassColor      *string `json:"class_color,omitempty"`
}

// NewClassEntryResponse converts a joined entry.
func NewClassEntryResponse(e models.ClassEntryDetail) ClassEntryResponse {
	return ClassEntryResponse{
		ID:              e.ID,
		ClassTypeID:     e.ClassTypeID,
		SemesterRangeID: e.SemesterRangeID,
		Date:            calendar.Key(e.Date),
		Period:          e.Period,
		Status:          e.Status,
		Notes:           e.Notes,
		ClassName:       e.ClassName,
		ClassColor:      e.ClassColor,
	}
}

// NewClassEntryResponses converts a list of joined entries.
func NewClassEntryResponses(entries []models.ClassEntryDetail) []ClassEntryResponse {
	out := make([]ClassEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewClassEntryResponse(e))
	}
	return out
}

// UpsertClassEntryRequest creates or updates the entry for (class, date, period).
type UpsertClassEntryRequest struct {
	ClassTypeID     *int64  `json:"class_type_id" validate:"required,min=1"`
	SemesterRangeID *string `json:"semester_range_id" validate:"omitempty,uuid"`
	Date            string  `json:"date" validate:"required"`
	Period          int     `json:"period" validate:"required,min=1,max=7"`
	Status          bool    `json:"status"`
	Notes           string  `json:"notes" validate:"max=5000"`
}

// UpdateStatusRequest sets an entry's completion flag.
type UpdateStatusRequest struct {
	Status *bool `json:"status" validate:"required"`
}

// UpdateNotesRequest replaces an entry's notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=5000"`
}

// SlotRequest addresses an entry by its unique slot.
type SlotRequest struct {
	Date        string `json:"date" validate:"required"`
	ClassTypeID int64  `json:"class_type_id" validate:"required,min=1"`
	Period      int    `json:"period" validate:"required,min=1,max=7"`
}

// SlotNotesRequest saves notes for a slot, creating the entry when absent.
type SlotNotesRequest struct {
	SlotRequest
	Notes string `json:"notes" validate:"max=5000"`
}

// DayView is the derived calendar cell for one date.
type DayView struct {
	Date        string            `json:"date"`
	Weekday     string            `json:"weekday"`
	IsWeekday   bool              `json:"is_weekday"`
	IsHoliday   bool              `json:"is_holiday"`
	HolidayName string            `json:"holiday_name,omitempty"`
	HasClass    bool              `json:"has_class"`
	Classes     []int64           `json:"classes"`
	Status      map[string]bool   `json:"status"`
	Comments    map[string]string `json:"comments"`
}

// CalendarResponse holds the day views for a window.
type CalendarResponse struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Days      []DayView `json:"days"`
}

// HolidayRequest adds a holiday.
type HolidayRequest struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name" validate:"max=100"`
}

// ReplaceHolidaysRequest replaces the whole holiday set.
type ReplaceHolidaysRequest struct {
	Holidays []HolidayRequest `json:"holidays" validate:"dive"`
}

// HolidayResponse renders a holiday with a date-only string.
type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// HolidayGroup lists holidays of one year-month ("2025-10").
type HolidayGroup struct {
	Month    string            `json:"month"`
	Holidays []HolidayResponse `json:"holidays"`
}

// GroupHolidays converts holidays and groups them by year-month, ascending.
func GroupHolidays(holidays []models.Holiday) []HolidayGroup {
	sorted := make([]models.Holiday, len(holidays))
	copy(sorted, holidays)
	sort.SliceStable(sorted, func(i, j int) bool {
		return calendar.Key(sorted[i].Date) < calendar.Key(sorted[j].Date)
	})

	var groups []HolidayGroup
	for _, h := range sorted {
		key := calendar.Key(h.Date)
		month := key[:7]
		if len(groups) == 0 || groups[len(groups)-1].Month != month {
			groups = append(groups, HolidayGroup{Month: month})
		}
		last := &groups[len(groups)-1]
		last.Holidays = append(last.Holidays, HolidayResponse{ID: h.ID, Date: key, Name: h.Name})
	}
	return groups
}

// HolidayImportResult reports an import run.
type HolidayImportResult struct {
	Format   string `json:"format"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// ClassStatResponse decorates per-class counts for display.
type ClassStatResponse struct {
	ClassTypeID int64  `json:"class_type_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
	Remaining   int    `json:"remaining"`
	Progress    int    `json:"progress"`
}

// StatisticsResponse is the statistics payload for a range.
type StatisticsResponse struct {
	StartDate         string              `json:"start_date"`
	EndDate           string              `json:"end_date"`
	Today             string              `json:"today"`
	TotalWeekdays     int                 `json:"total_weekdays"`
	CompletedWeekdays int                 `json:"completed_weekdays"`
	RemainingWeekdays int                 `json:"remaining_weekdays"`
	TotalClasses      int                 `json:"total_classes"`
	CompletedClasses  int                 `json:"completed_classes"`
	RemainingClasses  int                 `json:"remaining_classes"`
	Progress          int                 `json:"progress"`
	Classes           []ClassStatResponse `json:"classes"`
}

// NoteFailure records a buffered note that could not be saved.
type NoteFailure struct {
	Key      string    `json:"key"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// PendingNotesResponse reports buffered note edits not yet committed.
type PendingNotesResponse struct {
	Pending  int           `json:"pending"`
	Keys     []string      `json:"keys"`
	Failures []NoteFailure `json:"failures"`
}

// FlushNotesResponse reports an explicit flush.
type FlushNotesResponse struct {
	Saved    int           `json:"saved"`
	Failures []NoteFailure `json:"failures"`
}
