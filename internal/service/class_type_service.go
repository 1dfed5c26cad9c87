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

type classTypeRepository interface {
	List(ctx context.Context) ([]models.ClassType, error)
	FindByID(ctx context.Context, id int64) (*models.ClassType, error)
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	Create(ctx context.Context, item *models.ClassType) error
	Update(ctx context.Context, item *models.ClassType) error
	Delete(ctx context.Context, id int64) error
}

// ClassTypeService manages the class reference data.
type ClassTypeService struct {
	repo      classTypeRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassTypeService creates a class type service.
func NewClassTypeService(repo classTypeRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassTypeService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all class types.
func (s *ClassTypeService) List(ctx context.Context) ([]models.ClassType, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class types")
	}
	if items == nil {
		items = []models.ClassType{}
	}
	return items, nil
}

// Get returns a class type by id.
func (s *ClassTypeService) Get(ctx context.Context, id int64) (*models.ClassType, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class type not found")
		}
		return nil, appErrors.Internal(err, "failed to load class type")
	}
	return item, nil
}

// Create adds a class type.
func (s *ClassTypeService) Create(ctx context.Context, req dto.ClassTypeRequest) (*models.ClassType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class type payload")
	}
	item := &models.ClassType{Name: strings.TrimSpace(req.Name), Color: strings.ToLower(req.Color)}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create class type")
	}
	return item, nil
}

// Update renames or recolours a class type.
func (s *ClassTypeService) Update(ctx context.Context, id int64, req dto.ClassTypeRequest) (*models.ClassType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class type payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = strings.TrimSpace(req.Name)
	item.Color = strings.ToLower(req.Color)
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class type not found")
		}
		return nil, appErrors.Internal(err, "failed to update class type")
	}
	s.invalidateStatistics(ctx)
	return item, nil
}

// Delete removes a class type. Entries that referenced it keep their dates with no class.
func (s *ClassTypeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class type not found")
		}
		return appErrors.Internal(err, "failed to delete class type")
	}
	s.invalidateStatistics(ctx)
	return nil
}

// Names returns id -> class type for decoration.
func (s *ClassTypeService) Names(ctx context.Context) (map[int64]models.ClassType, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]models.ClassType, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (s *ClassTypeService) invalidateStatistics(ctx context.Context) {
	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
}
