package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
	"github.com/noah-isme/class-schedule-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatICS  = "ics"
	ExportFormatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statisticsProvider interface {
	Get(ctx context.Context, rawStart, rawEnd string) (*dto.StatisticsResponse, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type icsRenderer interface {
	Render(events []export.Event, stamp time.Time) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders statistics and entries as downloadable files.
type ExportService struct {
	stats    statisticsProvider
	entries  entryRangeReader
	holidays holidayRangeReader
	ranges   currentRangeFinder
	csv      csvRenderer
	pdf      pdfRenderer
	xlsx     xlsxRenderer
	ics      icsRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(stats statisticsProvider, entries entryRangeReader, holidays holidayRangeReader, ranges currentRangeFinder, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ics icsRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter("Class Schedule")
	}
	return &ExportService{
		stats:    stats,
		entries:  entries,
		holidays: holidays,
		ranges:   ranges,
		csv:      csv,
		pdf:      pdf,
		xlsx:     export.NewXLSXExporter(),
		ics:      ics,
		logger:   logger,
	}
}

// Statistics renders the statistics of a range as CSV, PDF or XLSX.
func (s *ExportService) Statistics(ctx context.Context, rawStart, rawEnd, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF && format != ExportFormatXLSX {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	stats, _, err := s.stats.Get(ctx, rawStart, rawEnd)
	if err != nil {
		return nil, err
	}
	dataset := StatisticsDataset(*stats)
	name := fmt.Sprintf("statistics_%s_%s.%s", stats.StartDate, stats.EndDate, format)

	switch format {
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render statistics pdf")
		}
		return &ExportFile{Filename: name, ContentType: "application/pdf", Data: data}, nil
	case ExportFormatXLSX:
		data, err := s.xlsx.Render(dataset)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render statistics xlsx")
		}
		return &ExportFile{Filename: name, ContentType: xlsxContentType, Data: data}, nil
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render statistics csv")
	}
	return &ExportFile{Filename: name, ContentType: "text/csv; charset=utf-8", Data: data}, nil
}

// StatisticsDataset lays out per-class rows followed by a total row.
func StatisticsDataset(stats dto.StatisticsResponse) export.Dataset {
	d := export.Dataset{
		Title:   fmt.Sprintf("Class progress %s ~ %s", stats.StartDate, stats.EndDate),
		Headers: []string{"Class", "Total", "Completed", "Remaining", "Progress (%)"},
	}
	for _, c := range stats.Classes {
		d.AddRow(c.Name, strconv.Itoa(c.Total), strconv.Itoa(c.Completed), strconv.Itoa(c.Remaining), strconv.Itoa(c.Progress))
	}
	d.AddRow("Total", strconv.Itoa(stats.TotalClasses), strconv.Itoa(stats.CompletedClasses),
		strconv.Itoa(stats.RemainingClasses), strconv.Itoa(stats.Progress))
	d.Summary = []string{
		fmt.Sprintf("As of %s", stats.Today),
		fmt.Sprintf("Weekdays: %d total, %d completed, %d remaining", stats.TotalWeekdays, stats.CompletedWeekdays, stats.RemainingWeekdays),
	}
	return d
}

// EntriesCSV renders every entry in [start, end] as CSV.
func (s *ExportService) EntriesCSV(ctx context.Context, rawStart, rawEnd string) (*ExportFile, error) {
	start, end, err := s.window(ctx, rawStart, rawEnd)
	if err != nil {
		return nil, err
	}
	items, err := s.entries.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class entries")
	}

	d := export.Dataset{Headers: []string{"date", "weekday", "period", "class", "status", "notes"}}
	for _, e := range items {
		d.AddRow(calendar.Key(e.Date), calendar.DayName(e.Date.Weekday()), strconv.Itoa(e.Period),
			entryClassName(e), strconv.FormatBool(e.Status), e.Notes)
	}
	data, err := s.csv.Render(d)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render entries csv")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("entries_%s_%s.csv", calendar.Key(start), calendar.Key(end)),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

// CalendarICS renders entries and holidays in [start, end] as an iCalendar feed.
// Empty bounds export the current semester range.
func (s *ExportService) CalendarICS(ctx context.Context, rawStart, rawEnd string) (*ExportFile, error) {
	start, end, err := s.window(ctx, rawStart, rawEnd)
	if err != nil {
		return nil, err
	}
	items, err := s.entries.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class entries")
	}
	holidays, err := s.holidays.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load holidays")
	}

	events := make([]export.Event, 0, len(items)+len(holidays))
	for _, h := range holidays {
		events = append(events, export.Event{
			UID:        fmt.Sprintf("holiday-%s@class-schedule", calendar.Key(h.Date)),
			Date:       h.Date,
			Summary:    h.Name,
			Categories: []string{"HOLIDAY"},
		})
	}
	for _, e := range items {
		if e.ClassTypeID == nil {
			continue
		}
		summary := fmt.Sprintf("%s (period %d)", entryClassName(e), e.Period)
		if e.Status {
			summary = "✔ " + summary
		}
		events = append(events, export.Event{
			UID:         fmt.Sprintf("entry-%s@class-schedule", e.ID),
			Date:        e.Date,
			Summary:     summary,
			Description: e.Notes,
			Categories:  []string{"CLASS"},
		})
	}

	data, err := s.ics.Render(events, time.Now())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render calendar feed")
	}
	s.logger.Debug("calendar feed rendered", zap.Int("events", len(events)))
	return &ExportFile{Filename: "class-schedule.ics", ContentType: "text/calendar; charset=utf-8", Data: data}, nil
}

func (s *ExportService) window(ctx context.Context, rawStart, rawEnd string) (time.Time, time.Time, error) {
	if strings.TrimSpace(rawStart) != "" || strings.TrimSpace(rawEnd) != "" || s.ranges == nil {
		return parseWindow(rawStart, rawEnd)
	}
	current, err := s.ranges.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "no semester range has been set")
		}
		return time.Time{}, time.Time{}, appErrors.Internal(err, "failed to load semester range")
	}
	return current.StartDate, current.EndDate, nil
}

func entryClassName(e models.ClassEntryDetail) string {
	if e.ClassName != nil {
		return *e.ClassName
	}
	if e.ClassTypeID != nil {
		return fmt.Sprintf("Class %d", *e.ClassTypeID)
	}
	return ""
}
