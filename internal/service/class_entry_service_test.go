package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

func newEntryService(store *entryStoreStub, cache *CacheService) *ClassEntryService {
	ranges := &rangeStub{current: &models.SemesterRange{ID: "range-1"}}
	classTypes := &classTypeStoreStub{items: []models.ClassType{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}}
	return NewClassEntryService(store, ranges, classTypes, cache, nil, nil, 365)
}

func TestClassEntryServiceToggleTwiceRestoresStatus(t *testing.T) {
	store := newEntryStoreStub()
	svc := newEntryService(store, nil)
	slot := dto.SlotRequest{Date: "2025-09-01", ClassTypeID: 3, Period: 2}

	first, err := svc.Toggle(context.Background(), slot)
	require.NoError(t, err)
	assert.True(t, first.Status)
	require.NotNil(t, first.SemesterRangeID)
	assert.Equal(t, "range-1", *first.SemesterRangeID)

	second, err := svc.Toggle(context.Background(), slot)
	require.NoError(t, err)
	assert.False(t, second.Status)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.count())
}

func TestClassEntryServiceToggleExistingEntry(t *testing.T) {
	store := newEntryStoreStub(models.ClassEntry{ClassTypeID: i64(1), Date: mustDate(t, "2025-09-01"), Period: 1, Notes: "ch.3"})
	svc := newEntryService(store, nil)

	entry, err := svc.Toggle(context.Background(), dto.SlotRequest{Date: "2025-09-01", ClassTypeID: 1, Period: 1})
	require.NoError(t, err)
	assert.True(t, entry.Status)
	assert.Equal(t, "ch.3", entry.Notes)
}

func TestClassEntryServiceSaveNotesCreatesIncompleteEntry(t *testing.T) {
	store := newEntryStoreStub()
	svc := newEntryService(store, nil)

	entry, err := svc.SaveNotes(context.Background(), dto.SlotNotesRequest{
		SlotRequest: dto.SlotRequest{Date: "2025-09-02", ClassTypeID: 4, Period: 5},
		Notes:       "quiz next week",
	})
	require.NoError(t, err)
	assert.False(t, entry.Status)
	assert.Equal(t, "quiz next week", entry.Notes)

	toggled, err := svc.Toggle(context.Background(), dto.SlotRequest{Date: "2025-09-02", ClassTypeID: 4, Period: 5})
	require.NoError(t, err)
	assert.True(t, toggled.Status)
	assert.Equal(t, "quiz next week", toggled.Notes)
}

func TestClassEntryServiceRejectsBadSlots(t *testing.T) {
	svc := newEntryService(newEntryStoreStub(), nil)

	_, err := svc.Toggle(context.Background(), dto.SlotRequest{Date: "2025-09-01", ClassTypeID: 1, Period: 8})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Toggle(context.Background(), dto.SlotRequest{Date: "09/01/2025", ClassTypeID: 1, Period: 1})
	require.Error(t, err)
	assert.Equal(t, `invalid date "09/01/2025", expected YYYY-MM-DD`, appErrors.FromError(err).Message)
}

func TestClassEntryServiceUpdateStatusNotFound(t *testing.T) {
	svc := newEntryService(newEntryStoreStub(), nil)
	status := true

	_, err := svc.UpdateStatus(context.Background(), "missing", dto.UpdateStatusRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), "missing", dto.UpdateStatusRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassEntryServiceUpdateByID(t *testing.T) {
	store := newEntryStoreStub(models.ClassEntry{ID: "e1", ClassTypeID: i64(1), Date: mustDate(t, "2025-09-01"), Period: 1})
	svc := newEntryService(store, nil)
	status := true

	updated, err := svc.UpdateStatus(context.Background(), "e1", dto.UpdateStatusRequest{Status: &status})
	require.NoError(t, err)
	assert.True(t, updated.Status)

	updated, err = svc.UpdateNotes(context.Background(), "e1", dto.UpdateNotesRequest{Notes: "done early"})
	require.NoError(t, err)
	assert.Equal(t, "done early", updated.Notes)

	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Zero(t, store.count())
	require.Error(t, svc.Delete(context.Background(), "e1"))
}

func TestClassEntryServiceUpsertKeepsOneRowPerSlot(t *testing.T) {
	store := newEntryStoreStub()
	svc := newEntryService(store, nil)
	req := dto.UpsertClassEntryRequest{ClassTypeID: i64(2), Date: "2025-09-03", Period: 3, Notes: "a"}

	first, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)
	req.Status = true
	req.Notes = "b"
	second, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.count())
	got, ok := store.bySlot("2025-09-03", 2, 3)
	require.True(t, ok)
	assert.True(t, got.Status)
	assert.Equal(t, "b", got.Notes)
}

func TestClassEntryServiceDeleteRangeValidatesRange(t *testing.T) {
	store := newEntryStoreStub(
		models.ClassEntry{ClassTypeID: i64(1), Date: mustDate(t, "2025-09-01"), Period: 1},
		models.ClassEntry{ClassTypeID: i64(1), Date: mustDate(t, "2025-09-08"), Period: 1},
	)
	svc := newEntryService(store, nil)

	_, err := svc.DeleteRange(context.Background(), "2025-09-10", "2025-09-01")
	require.Error(t, err)
	assert.Equal(t, "start date cannot be after end date", appErrors.FromError(err).Message)

	_, err = svc.DeleteRange(context.Background(), "2025-01-01", "2026-01-01")
	require.Error(t, err)
	assert.Equal(t, "date range cannot exceed 365 days", appErrors.FromError(err).Message)

	n, err := svc.DeleteRange(context.Background(), "2025-09-01", "2025-09-05")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, store.count())
}

func TestClassEntryServiceStoreFailureIsGeneric(t *testing.T) {
	store := newEntryStoreStub()
	store.failErr = errors.New("connection reset")
	svc := newEntryService(store, nil)

	_, err := svc.Toggle(context.Background(), dto.SlotRequest{Date: "2025-09-01", ClassTypeID: 1, Period: 1})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStore.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrStore.Message, appErr.Message)
}

func TestClassEntryServiceEditsInvalidateStatistics(t *testing.T) {
	repo := newCacheStub()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	require.NoError(t, cache.Set(context.Background(), StatisticsKey("2025-09-01", "2025-09-30", "2025-09-02"), map[string]int{"x": 1}, 0))
	require.Equal(t, 1, repo.size())

	svc := newEntryService(newEntryStoreStub(), cache)
	_, err := svc.Toggle(context.Background(), dto.SlotRequest{Date: "2025-09-01", ClassTypeID: 1, Period: 1})
	require.NoError(t, err)
	assert.Zero(t, repo.size())

	require.NoError(t, cache.Set(context.Background(), StatisticsKey("2025-09-01", "2025-09-30", "2025-09-02"), map[string]int{"x": 1}, 0))
	_, err = svc.SaveNotes(context.Background(), dto.SlotNotesRequest{
		SlotRequest: dto.SlotRequest{Date: "2025-09-03", ClassTypeID: 2, Period: 3},
		Notes:       "bring rulers",
	})
	require.NoError(t, err)
	assert.Zero(t, repo.size())
}

func TestClassEntryServiceNotesOnNewSlotRefreshStatistics(t *testing.T) {
	cache := NewCacheService(newCacheStub(), nil, time.Minute, nil, true)
	stats, store := newStatisticsFixture(t, cache)
	entries := newEntryService(store, cache)

	before, _, err := stats.Get(context.Background(), "2025-09-01", "2025-09-02")
	require.NoError(t, err)
	assert.Equal(t, 3, before.TotalClasses)

	_, err = entries.SaveNotes(context.Background(), dto.SlotNotesRequest{
		SlotRequest: dto.SlotRequest{Date: "2025-09-02", ClassTypeID: 2, Period: 3},
		Notes:       "lab report due",
	})
	require.NoError(t, err)

	after, hit, err := stats.Get(context.Background(), "2025-09-01", "2025-09-02")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, after.TotalClasses)
	assert.Equal(t, 4, store.count())
}

func TestClassEntryServiceUpsertRequiresKnownClass(t *testing.T) {
	store := newEntryStoreStub()
	svc := newEntryService(store, nil)

	_, err := svc.Upsert(context.Background(), dto.UpsertClassEntryRequest{Date: "2025-09-03", Period: 3, Notes: "free period"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Upsert(context.Background(), dto.UpsertClassEntryRequest{ClassTypeID: i64(42), Date: "2025-09-03", Period: 3})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "class type 42 does not exist", appErr.Message)

	_, err = svc.Toggle(context.Background(), dto.SlotRequest{Date: "2025-09-03", ClassTypeID: 42, Period: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.count())
}

func TestClassEntryServiceListRange(t *testing.T) {
	store := newEntryStoreStub(
		models.ClassEntry{ClassTypeID: i64(1), Date: mustDate(t, "2025-09-02"), Period: 2},
		models.ClassEntry{ClassTypeID: i64(1), Date: mustDate(t, "2025-09-01"), Period: 1},
	)
	svc := newEntryService(store, nil)

	items, err := svc.ListRange(context.Background(), "2025-09-01", "2025-09-30")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Period)

	_, err = svc.ListRange(context.Background(), "", "2025-09-30")
	require.Error(t, err)
	assert.Equal(t, "start_date and end_date are both required", appErrors.FromError(err).Message)

	empty, err := svc.ListByDate(context.Background(), "2025-10-01")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
