package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

// Holiday import formats.
const (
	HolidayFormatYAML = "yaml"
	HolidayFormatICS  = "ics"
)

type holidayRepository interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error)
	ListRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error)
	Upsert(ctx context.Context, holiday *models.Holiday) error
	DeleteByDate(ctx context.Context, date time.Time) error
	ReplaceAll(ctx context.Context, holidays []models.Holiday) error
}

// HolidayService maintains the holiday set.
type HolidayService struct {
	repo      holidayRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the service.
func NewHolidayService(repo holidayRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns holidays, optionally narrowed to a year and month.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	if filter.Month != 0 && (filter.Month < 1 || filter.Month > 12) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if filter.Month != 0 && filter.Year == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month filter requires a year")
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list holidays")
	}
	if items == nil {
		items = []models.Holiday{}
	}
	return items, nil
}

// Range returns the holidays dated in [start, end].
func (s *HolidayService) Range(ctx context.Context, start, end time.Time) ([]models.Holiday, error) {
	items, err := s.repo.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list holidays")
	}
	return items, nil
}

// Add records a holiday; an existing date is renamed.
func (s *HolidayService) Add(ctx context.Context, req dto.HolidayRequest) (*models.Holiday, error) {
	holiday, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, &holiday); err != nil {
		return nil, appErrors.Internal(err, "failed to save holiday")
	}
	s.changed(ctx)
	return &holiday, nil
}

// Remove deletes the holiday on a date.
func (s *HolidayService) Remove(ctx context.Context, rawDate string) error {
	date, err := parseDate(rawDate)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByDate(ctx, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Internal(err, "failed to delete holiday")
	}
	s.changed(ctx)
	return nil
}

// ReplaceAll swaps the whole holiday set. Duplicate dates keep the last name.
func (s *HolidayService) ReplaceAll(ctx context.Context, req dto.ReplaceHolidaysRequest) ([]models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	holidays := make([]models.Holiday, 0, len(req.Holidays))
	for _, item := range req.Holidays {
		holiday, err := s.fromRequest(item)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}
	holidays = dedupeHolidays(holidays)
	if err := s.repo.ReplaceAll(ctx, holidays); err != nil {
		return nil, appErrors.Internal(err, "failed to replace holidays")
	}
	s.changed(ctx)
	return holidays, nil
}

// Import reads holidays in the given format and upserts them. Rows that cannot
// be read as a date are skipped and counted.
func (s *HolidayService) Import(ctx context.Context, format string, r io.Reader) (*dto.HolidayImportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		holidays []models.Holiday
		skipped  int
		err      error
	)
	switch format {
	case HolidayFormatYAML, "yml":
		format = HolidayFormatYAML
		holidays, skipped, err = s.decodeYAML(r)
	case HolidayFormatICS, "ical":
		format = HolidayFormatICS
		holidays, skipped, err = s.decodeICS(r)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported holiday format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read holiday file")
	}

	holidays = dedupeHolidays(holidays)
	for i := range holidays {
		if err := s.repo.Upsert(ctx, &holidays[i]); err != nil {
			return nil, appErrors.Internal(err, "failed to import holidays")
		}
	}
	if len(holidays) > 0 {
		s.changed(ctx)
	}
	s.logger.Info("holidays imported", zap.String("format", format), zap.Int("imported", len(holidays)), zap.Int("skipped", skipped))
	return &dto.HolidayImportResult{Format: format, Imported: len(holidays), Skipped: skipped}, nil
}

// HolidayFile is the YAML layout accepted by Import and the seed command.
type HolidayFile struct {
	Holidays []HolidayEntry `yaml:"holidays"`
}

// HolidayEntry is one YAML holiday row.
type HolidayEntry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

func (s *HolidayService) decodeYAML(r io.Reader) ([]models.Holiday, int, error) {
	var file HolidayFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}
	holidays := make([]models.Holiday, 0, len(file.Holidays))
	skipped := 0
	for _, row := range file.Holidays {
		date, err := calendar.Parse(row.Date)
		if err != nil {
			skipped++
			continue
		}
		holidays = append(holidays, models.Holiday{Date: date, Name: holidayName(row.Name)})
	}
	return holidays, skipped, nil
}

// decodeICS reads one holiday per VEVENT from the DATE part of DTSTART.
func (s *HolidayService) decodeICS(r io.Reader) ([]models.Holiday, int, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, 0, err
	}
	events := cal.Events()
	holidays := make([]models.Holiday, 0, len(events))
	skipped := 0
	for _, ev := range events {
		prop := ev.GetProperty(ical.ComponentPropertyDtStart)
		if prop == nil || len(prop.Value) < 8 {
			skipped++
			continue
		}
		date, err := time.Parse("20060102", prop.Value[:8])
		if err != nil {
			skipped++
			continue
		}
		name := ""
		if summary := ev.GetProperty(ical.ComponentPropertySummary); summary != nil {
			name = summary.Value
		}
		holidays = append(holidays, models.Holiday{Date: date, Name: holidayName(name)})
	}
	return holidays, skipped, nil
}

func (s *HolidayService) fromRequest(req dto.HolidayRequest) (models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Holiday{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return models.Holiday{}, err
	}
	return models.Holiday{Date: date, Name: holidayName(req.Name)}, nil
}

func (s *HolidayService) changed(ctx context.Context) {
	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
}

func holidayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DefaultHolidayName
	}
	return name
}

func dedupeHolidays(holidays []models.Holiday) []models.Holiday {
	index := make(map[string]int, len(holidays))
	out := make([]models.Holiday, 0, len(holidays))
	for _, h := range holidays {
		key := calendar.Key(h.Date)
		if i, ok := index[key]; ok {
			out[i].Name = h.Name
			continue
		}
		index[key] = len(out)
		out = append(out, h)
	}
	return out
}
