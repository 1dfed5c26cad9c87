package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

type classTypeLister interface {
	List(ctx context.Context) ([]models.ClassType, error)
}

// StatisticsConfig tunes the statistics service.
type StatisticsConfig struct {
	Location *time.Location
	CacheTTL time.Duration
	// Now is the clock used to decide "today"; defaults to time.Now.
	Now func() time.Time
}

// StatisticsService computes progress statistics. Entries on holidays are left out.
type StatisticsService struct {
	entries    entryRangeReader
	holidays   holidayRangeReader
	classTypes classTypeLister
	ranges     currentRangeFinder
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        StatisticsConfig
}

// NewStatisticsService wires the statistics service.
func NewStatisticsService(
	entries entryRangeReader,
	holidays holidayRangeReader,
	classTypes classTypeLister,
	ranges currentRangeFinder,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg StatisticsConfig,
) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StatisticsService{
		entries:    entries,
		holidays:   holidays,
		classTypes: classTypes,
		ranges:     ranges,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Today returns the current date in the configured timezone.
func (s *StatisticsService) Today() time.Time {
	return calendar.Normalize(s.cfg.Now().In(s.cfg.Location))
}

// Get returns statistics for [start, end], or for the current semester range when
// both bounds are empty. The boolean reports whether the result came from cache.
func (s *StatisticsService) Get(ctx context.Context, rawStart, rawEnd string) (*dto.StatisticsResponse, bool, error) {
	start, end, err := s.resolveRange(ctx, rawStart, rawEnd)
	if err != nil {
		return nil, false, err
	}
	today := s.Today()

	key := StatisticsKey(calendar.Key(start), calendar.Key(end), calendar.Key(today))
	var cached dto.StatisticsResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	resp, err := s.compute(ctx, start, end, today)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

func (s *StatisticsService) resolveRange(ctx context.Context, rawStart, rawEnd string) (time.Time, time.Time, error) {
	if strings.TrimSpace(rawStart) != "" || strings.TrimSpace(rawEnd) != "" {
		return parseWindow(rawStart, rawEnd)
	}
	if s.ranges == nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "start_date and end_date are both required")
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

func (s *StatisticsService) compute(ctx context.Context, start, end, today time.Time) (*dto.StatisticsResponse, error) {
	began := time.Now()
	details, err := s.entries.ListRange(ctx, start, end)
	s.metrics.ObserveDBQuery("statistics_entries", time.Since(began))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class entries")
	}
	holidays, err := s.holidays.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load holidays")
	}
	types, err := s.classTypes.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class types")
	}

	off := calendar.NewHolidaySet()
	for _, h := range holidays {
		off.Add(h.Date)
	}
	entries := make([]models.ClassEntry, 0, len(details))
	for _, d := range details {
		if off.Contains(d.Date) {
			continue
		}
		entries = append(entries, d.ClassEntry)
	}

	stats := ComputeStatistics(entries, start, end, today)
	return decorateStatistics(stats, types, start, end, today), nil
}

func decorateStatistics(stats models.Statistics, types []models.ClassType, start, end, today time.Time) *dto.StatisticsResponse {
	byID := make(map[int64]models.ClassType, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}

	classes := make([]dto.ClassStatResponse, 0, len(stats.ClassStats))
	for id, cs := range stats.ClassStats {
		item := dto.ClassStatResponse{
			ClassTypeID: id,
			Name:        fmt.Sprintf("Class %d", id),
			Total:       cs.Total,
			Completed:   cs.Completed,
			Remaining:   cs.Total - cs.Completed,
			Progress:    Percentage(cs.Completed, cs.Total),
		}
		if t, ok := byID[id]; ok {
			item.Name = t.Name
			item.Color = t.Color
		}
		classes = append(classes, item)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ClassTypeID < classes[j].ClassTypeID })

	return &dto.StatisticsResponse{
		StartDate:         calendar.Key(start),
		EndDate:           calendar.Key(end),
		Today:             calendar.Key(today),
		TotalWeekdays:     stats.TotalWeekdays,
		CompletedWeekdays: stats.CompletedWeekdays,
		RemainingWeekdays: stats.RemainingWeekdays,
		TotalClasses:      stats.TotalClasses,
		CompletedClasses:  stats.CompletedClasses,
		RemainingClasses:  stats.TotalClasses - stats.CompletedClasses,
		Progress:          Percentage(stats.CompletedClasses, stats.TotalClasses),
		Classes:           classes,
	}
}
