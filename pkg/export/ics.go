package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Event is an all-day calendar item.
type Event struct {
	UID         string
	Date        time.Time
	Summary     string
	Description string
	Categories  []string
}

// ICSExporter renders events as an iCalendar feed.
type ICSExporter struct {
	ProductID string
	Name      string
}

// NewICSExporter builds an exporter with the given calendar name.
func NewICSExporter(name string) *ICSExporter {
	return &ICSExporter{ProductID: "-//class-schedule-api//EN", Name: name}
}

// Render serializes events; each lasts from its date to the next day.
func (e *ICSExporter) Render(events []Event, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.ProductID)
	if e.Name != "" {
		cal.SetName(e.Name)
		cal.SetXWRCalName(e.Name)
	}

	for _, item := range events {
		if item.UID == "" {
			return nil, fmt.Errorf("ics event on %s has no uid", item.Date.Format("2006-01-02"))
		}
		day := time.Date(item.Date.Year(), item.Date.Month(), item.Date.Day(), 0, 0, 0, 0, time.UTC)
		ev := cal.AddEvent(item.UID)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(item.Summary)
		if item.Description != "" {
			ev.SetDescription(item.Description)
		}
		for _, c := range item.Categories {
			ev.AddProperty(ical.ComponentPropertyCategories, c)
		}
	}
	return []byte(cal.Serialize()), nil
}
