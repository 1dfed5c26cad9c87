package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/internal/repository"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

type weeklyTemplateRepository interface {
	ListSlots(ctx context.Context) ([]models.TemplateSlot, error)
	Replace(ctx context.Context, slots []models.TemplateSlot) error
}

type entryRangeReplacer interface {
	ReplaceRange(ctx context.Context, start, end time.Time, build repository.BuildEntries) (repository.ReplaceResult, error)
}

type classTypeChecker interface {
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

type currentRangeFinder interface {
	Current(ctx context.Context) (*models.SemesterRange, error)
}

// ScheduleConfig tunes materialization.
type ScheduleConfig struct {
	Policy       models.MaterializePolicy
	MaxRangeDays int
}

// ScheduleService owns the weekly template and expands it into class entries.
type ScheduleService struct {
	templates  weeklyTemplateRepository
	entries    entryRangeReplacer
	classTypes classTypeChecker
	ranges     currentRangeFinder
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ScheduleConfig
}

// NewScheduleService wires the schedule service.
func NewScheduleService(
	templates weeklyTemplateRepository,
	entries entryRangeReplacer,
	classTypes classTypeChecker,
	ranges currentRangeFinder,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleConfig,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Policy.Valid() {
		cfg.Policy = models.PolicyPreserveExisting
	}
	return &ScheduleService{
		templates:  templates,
		entries:    entries,
		classTypes: classTypes,
		ranges:     ranges,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Policy returns the configured default materialization policy.
func (s *ScheduleService) Policy() models.MaterializePolicy {
	return s.cfg.Policy
}

// GetTemplate loads the stored weekly template.
func (s *ScheduleService) GetTemplate(ctx context.Context) (models.WeeklyTemplate, error) {
	slots, err := s.templates.ListSlots(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load weekly template")
	}
	return models.TemplateFromSlots(slots), nil
}

// ReplaceTemplate validates and stores a new weekly template.
func (s *ScheduleService) ReplaceTemplate(ctx context.Context, payload dto.WeeklyTemplatePayload) (models.WeeklyTemplate, error) {
	tpl, err := s.checkTemplate(ctx, payload)
	if err != nil {
		return nil, err
	}
	if err := s.templates.Replace(ctx, tpl.Slots()); err != nil {
		return nil, appErrors.Internal(err, "failed to save weekly template")
	}
	s.logger.Info("weekly template replaced", zap.Int("slots", len(tpl.Slots())))
	return tpl, nil
}

func (s *ScheduleService) checkTemplate(ctx context.Context, payload dto.WeeklyTemplatePayload) (models.WeeklyTemplate, error) {
	tpl, err := payload.ToTemplate()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	ids := templateClassIDs(tpl)
	if len(ids) == 0 {
		return tpl, nil
	}
	found, err := s.classTypes.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check class types")
	}
	for _, id := range ids {
		if !found[id] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("class type %d does not exist", id))
		}
	}
	return tpl, nil
}

func templateClassIDs(tpl models.WeeklyTemplate) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, slot := range tpl.Slots() {
		if _, ok := seen[slot.ClassTypeID]; ok {
			continue
		}
		seen[slot.ClassTypeID] = struct{}{}
		ids = append(ids, slot.ClassTypeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Materialize regenerates the class entries of a date range from the weekly
// template. The range is replaced atomically: on any failure the previous
// entries are left untouched and ErrMaterializing is returned.
func (s *ScheduleService) Materialize(ctx context.Context, req dto.MaterializeRequest) (*dto.MaterializeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid materialize payload")
	}
	start, end, err := parseRange(req.StartDate, req.EndDate, s.cfg.MaxRangeDays)
	if err != nil {
		return nil, err
	}

	policy := s.cfg.Policy
	if req.Policy != "" {
		policy = models.MaterializePolicy(req.Policy)
		if !policy.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown materialize policy %q", req.Policy))
		}
	}

	var tpl models.WeeklyTemplate
	if req.Template != nil {
		if tpl, err = s.checkTemplate(ctx, req.Template); err != nil {
			return nil, err
		}
	} else if tpl, err = s.GetTemplate(ctx); err != nil {
		return nil, err
	}

	rangeID, err := s.semesterRangeID(ctx, req.SemesterRangeID)
	if err != nil {
		return nil, err
	}

	preserved := 0
	began := time.Now()
	result, err := s.entries.ReplaceRange(ctx, start, end, func(existing []models.ClassEntry) ([]models.ClassEntry, error) {
		generated := Materialize(tpl, rangeID, start, end)
		if policy == models.PolicyPreserveExisting {
			preserved = ApplyPreservation(generated, existing)
		}
		return generated, nil
	})
	s.metrics.ObserveDBQuery("materialize_range", time.Since(began))
	s.metrics.RecordMaterialize(policy, result.Inserted, err)
	if err != nil {
		s.logger.Error("materialize failed",
			zap.String("start", calendar.Key(start)), zap.String("end", calendar.Key(end)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrMaterializing.Code, appErrors.ErrMaterializing.Status, appErrors.ErrMaterializing.Message)
	}

	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}

	out := &dto.MaterializeResult{
		StartDate: calendar.Key(start),
		EndDate:   calendar.Key(end),
		Policy:    string(policy),
		Deleted:   int(result.Deleted),
		Created:   result.Inserted,
		Preserved: preserved,
	}
	s.logger.Info("schedule materialized",
		zap.String("start", out.StartDate), zap.String("end", out.EndDate), zap.String("policy", out.Policy),
		zap.Int("deleted", out.Deleted), zap.Int("created", out.Created), zap.Int("preserved", out.Preserved))
	return out, nil
}

func (s *ScheduleService) semesterRangeID(ctx context.Context, requested string) (*string, error) {
	if requested != "" {
		return &requested, nil
	}
	if s.ranges == nil {
		return nil, nil
	}
	current, err := s.ranges.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load semester range")
	}
	return &current.ID, nil
}
