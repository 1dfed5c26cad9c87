package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

type semesterRangeRepository interface {
	List(ctx context.Context) ([]models.SemesterRange, error)
	Current(ctx context.Context) (*models.SemesterRange, error)
	FindByID(ctx context.Context, id string) (*models.SemesterRange, error)
	Create(ctx context.Context, item *models.SemesterRange) error
	Update(ctx context.Context, item *models.SemesterRange) error
}

// SemesterRangeService manages the current semester window.
type SemesterRangeService struct {
	repo      semesterRangeRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	maxDays   int
}

// NewSemesterRangeService creates the service.
func NewSemesterRangeService(repo semesterRangeRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, maxDays int) *SemesterRangeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterRangeService{repo: repo, cache: cache, validator: validate, logger: logger, maxDays: maxDays}
}

// List returns every stored range, newest first.
func (s *SemesterRangeService) List(ctx context.Context) ([]models.SemesterRange, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semester ranges")
	}
	return items, nil
}

// Current returns the current range.
func (s *SemesterRangeService) Current(ctx context.Context) (*models.SemesterRange, error) {
	item, err := s.repo.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no semester range has been set")
		}
		return nil, appErrors.Internal(err, "failed to load semester range")
	}
	return item, nil
}

// Get returns a range by id.
func (s *SemesterRangeService) Get(ctx context.Context, id string) (*models.SemesterRange, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester range not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester range")
	}
	return item, nil
}

// UpdateCurrent replaces the current range's dates and name wholesale, creating
// the range when none exists yet.
func (s *SemesterRangeService) UpdateCurrent(ctx context.Context, req dto.SemesterRangeRequest) (*models.SemesterRange, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester range payload")
	}
	start, end, err := parseRange(req.StartDate, req.EndDate, s.maxDays)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	current, err := s.repo.Current(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if name == "" {
			name = models.DefaultSemesterName
		}
		item := &models.SemesterRange{Name: name, StartDate: start, EndDate: end}
		if err := s.repo.Create(ctx, item); err != nil {
			return nil, appErrors.Internal(err, "failed to create semester range")
		}
		s.invalidateStatistics(ctx)
		return item, nil
	case err != nil:
		return nil, appErrors.Internal(err, "failed to load semester range")
	}

	if name != "" {
		current.Name = name
	}
	current.StartDate = start
	current.EndDate = end
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, appErrors.Internal(err, "failed to update semester range")
	}
	s.invalidateStatistics(ctx)
	return current, nil
}

func (s *SemesterRangeService) invalidateStatistics(ctx context.Context) {
	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
}
