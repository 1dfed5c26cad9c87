package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

type entryRangeReader interface {
	ListRange(ctx context.Context, start, end time.Time) ([]models.ClassEntryDetail, error)
}

type holidayRangeReader interface {
	ListRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error)
}

// CalendarService renders per-date calendar cells from stored entries and holidays.
type CalendarService struct {
	entries  entryRangeReader
	holidays holidayRangeReader
	logger   *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(entries entryRangeReader, holidays holidayRangeReader, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{entries: entries, holidays: holidays, logger: logger}
}

// Calendar returns one day view per date in [start, end].
func (s *CalendarService) Calendar(ctx context.Context, rawStart, rawEnd string) (*dto.CalendarResponse, error) {
	start, end, err := parseWindow(rawStart, rawEnd)
	if err != nil {
		return nil, err
	}
	days, err := s.views(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &dto.CalendarResponse{StartDate: calendar.Key(start), EndDate: calendar.Key(end), Days: days}, nil
}

// Day returns the view of a single date.
func (s *CalendarService) Day(ctx context.Context, rawDate string) (*dto.DayView, error) {
	date, err := parseDate(rawDate)
	if err != nil {
		return nil, err
	}
	days, err := s.views(ctx, date, date)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

func (s *CalendarService) views(ctx context.Context, start, end time.Time) ([]dto.DayView, error) {
	details, err := s.entries.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class entries")
	}
	holidays, err := s.holidays.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load holidays")
	}
	return BuildDayViews(plainEntries(details), holidays, start, end), nil
}

func plainEntries(details []models.ClassEntryDetail) []models.ClassEntry {
	out := make([]models.ClassEntry, 0, len(details))
	for _, d := range details {
		out = append(out, d.ClassEntry)
	}
	return out
}
