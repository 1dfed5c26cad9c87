package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

type classEntryRepository interface {
	ListRange(ctx context.Context, start, end time.Time) ([]models.ClassEntryDetail, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.ClassEntryDetail, error)
	FindByID(ctx context.Context, id string) (*models.ClassEntryDetail, error)
	Upsert(ctx context.Context, entry *models.ClassEntry) error
	ToggleSlot(ctx context.Context, key models.SlotKey, semesterRangeID *string) (*models.ClassEntry, error)
	SaveSlotNotes(ctx context.Context, key models.SlotKey, semesterRangeID *string, notes string) (*models.ClassEntry, error)
	UpdateStatus(ctx context.Context, id string, status bool) error
	UpdateNotes(ctx context.Context, id, notes string) error
	Delete(ctx context.Context, id string) error
	DeleteRange(ctx context.Context, start, end time.Time) (int64, error)
}

// ClassEntryService reads and edits dated class entries. Edits addressed by
// slot create the entry when it does not exist yet.
type ClassEntryService struct {
	repo       classEntryRepository
	ranges     currentRangeFinder
	classTypes classTypeChecker
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	maxDays    int
}

// NewClassEntryService wires the class entry service.
func NewClassEntryService(repo classEntryRepository, ranges currentRangeFinder, classTypes classTypeChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger, maxDays int) *ClassEntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassEntryService{repo: repo, ranges: ranges, classTypes: classTypes, cache: cache, validator: validate, logger: logger, maxDays: maxDays}
}

// ListRange returns the entries dated in [start, end].
func (s *ClassEntryService) ListRange(ctx context.Context, rawStart, rawEnd string) ([]models.ClassEntryDetail, error) {
	start, end, err := s.window(rawStart, rawEnd)
	if err != nil {
		return nil, err
	}
	return s.listRange(ctx, start, end)
}

func (s *ClassEntryService) listRange(ctx context.Context, start, end time.Time) ([]models.ClassEntryDetail, error) {
	items, err := s.repo.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class entries")
	}
	if items == nil {
		items = []models.ClassEntryDetail{}
	}
	return items, nil
}

// ListByDate returns the entries of one date.
func (s *ClassEntryService) ListByDate(ctx context.Context, rawDate string) ([]models.ClassEntryDetail, error) {
	date, err := parseDate(rawDate)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class entries")
	}
	if items == nil {
		items = []models.ClassEntryDetail{}
	}
	return items, nil
}

// Get returns a single entry.
func (s *ClassEntryService) Get(ctx context.Context, id string) (*models.ClassEntryDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class entry not found")
		}
		return nil, appErrors.Internal(err, "failed to load class entry")
	}
	return item, nil
}

// Upsert creates or overwrites the entry for (class, date, period).
func (s *ClassEntryService) Upsert(ctx context.Context, req dto.UpsertClassEntryRequest) (*models.ClassEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class entry payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.requireClassType(ctx, *req.ClassTypeID); err != nil {
		return nil, err
	}
	entry := &models.ClassEntry{
		ClassTypeID:     req.ClassTypeID,
		SemesterRangeID: req.SemesterRangeID,
		Date:            date,
		Period:          req.Period,
		Status:          req.Status,
		Notes:           req.Notes,
	}
	if entry.SemesterRangeID == nil {
		entry.SemesterRangeID = s.currentRangeID(ctx)
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, s.storeError(err, "upsert class entry")
	}
	s.changed(ctx)
	return entry, nil
}

// UpdateStatus sets the completion flag of an existing entry.
func (s *ClassEntryService) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (*models.ClassEntryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	if err := s.repo.UpdateStatus(ctx, id, *req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class entry not found")
		}
		return nil, s.storeError(err, "update class entry status")
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// UpdateNotes replaces the notes of an existing entry.
func (s *ClassEntryService) UpdateNotes(ctx context.Context, id string, req dto.UpdateNotesRequest) (*models.ClassEntryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notes payload")
	}
	if err := s.repo.UpdateNotes(ctx, id, req.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class entry not found")
		}
		return nil, s.storeError(err, "update class entry notes")
	}
	return s.Get(ctx, id)
}

// Toggle flips completion for a slot. A slot without an entry gets one marked complete.
func (s *ClassEntryService) Toggle(ctx context.Context, req dto.SlotRequest) (*models.ClassEntry, error) {
	key, err := s.slotKey(ctx, req)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.ToggleSlot(ctx, key, s.currentRangeID(ctx))
	if err != nil {
		return nil, s.storeError(err, "toggle class entry")
	}
	s.changed(ctx)
	return entry, nil
}

// SaveNotes stores notes for a slot. A slot without an entry gets one that is not complete.
func (s *ClassEntryService) SaveNotes(ctx context.Context, req dto.SlotNotesRequest) (*models.ClassEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notes payload")
	}
	key, err := s.slotKey(ctx, req.SlotRequest)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.SaveSlotNotes(ctx, key, s.currentRangeID(ctx), req.Notes)
	if err != nil {
		return nil, s.storeError(err, "save class entry notes")
	}
	s.changed(ctx)
	return entry, nil
}

// Delete removes one entry.
func (s *ClassEntryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class entry not found")
		}
		return s.storeError(err, "delete class entry")
	}
	s.changed(ctx)
	return nil
}

// DeleteRange clears every entry in [start, end] under the range editor rule.
func (s *ClassEntryService) DeleteRange(ctx context.Context, rawStart, rawEnd string) (int64, error) {
	start, end, err := parseRange(rawStart, rawEnd, s.maxDays)
	if err != nil {
		return 0, err
	}
	deleted, err := s.repo.DeleteRange(ctx, start, end)
	if err != nil {
		return 0, s.storeError(err, "delete class entry range")
	}
	s.changed(ctx)
	return deleted, nil
}

func (s *ClassEntryService) slotKey(ctx context.Context, req dto.SlotRequest) (models.SlotKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SlotKey{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class slot")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return models.SlotKey{}, err
	}
	if err := s.requireClassType(ctx, req.ClassTypeID); err != nil {
		return models.SlotKey{}, err
	}
	return models.SlotKey{Date: calendar.Key(date), ClassTypeID: req.ClassTypeID, Period: req.Period}, nil
}

// requireClassType rejects ids with no class type before the foreign key does.
func (s *ClassEntryService) requireClassType(ctx context.Context, id int64) error {
	if s.classTypes == nil {
		return nil
	}
	found, err := s.classTypes.ExistingIDs(ctx, []int64{id})
	if err != nil {
		return s.storeError(err, "check class type")
	}
	if !found[id] {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("class type %d does not exist", id))
	}
	return nil
}

// window parses a read window: both bounds required, start not after end.
func (s *ClassEntryService) window(rawStart, rawEnd string) (time.Time, time.Time, error) {
	return parseWindow(rawStart, rawEnd)
}

func (s *ClassEntryService) currentRangeID(ctx context.Context) *string {
	if s.ranges == nil {
		return nil
	}
	current, err := s.ranges.Current(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve current semester range", zap.Error(err))
		}
		return nil
	}
	return &current.ID
}

func (s *ClassEntryService) storeError(err error, op string) error {
	s.logger.Error("class entry store failure", zap.String("op", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, appErrors.ErrStore.Message)
}

func (s *ClassEntryService) changed(ctx context.Context) {
	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
}
