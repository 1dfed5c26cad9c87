package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

func TestClassTypeServiceCreateNormalises(t *testing.T) {
	repo := &classTypeStoreStub{}
	svc := NewClassTypeService(repo, nil, nil, nil)

	item, err := svc.Create(context.Background(), dto.ClassTypeRequest{Name: "  Class 1 ", Color: "#FF6B6B"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, "Class 1", item.Name)
	assert.Equal(t, "#ff6b6b", item.Color)

	_, err = svc.Create(context.Background(), dto.ClassTypeRequest{Name: "Class 2", Color: "red"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestClassTypeServiceListNeverNil(t *testing.T) {
	svc := NewClassTypeService(&classTypeStoreStub{}, nil, nil, nil)
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClassTypeServiceUpdateAndDeleteInvalidateStatistics(t *testing.T) {
	repo := &classTypeStoreStub{items: []models.ClassType{{ID: 4, Name: "Class 4", Color: "#96ceb4"}}}
	cacheRepo := newCacheStub()
	cache := NewCacheService(cacheRepo, nil, 0, nil, true)
	require.NoError(t, cache.Set(context.Background(), StatisticsKey("2025-09-01", "2025-09-30", "2025-09-10"), map[string]int{"total": 1}, 0))
	svc := NewClassTypeService(repo, cache, nil, nil)

	item, err := svc.Update(context.Background(), 4, dto.ClassTypeRequest{Name: "Class 4A", Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "Class 4A", item.Name)
	assert.Equal(t, 0, cacheRepo.size())

	_, err = svc.Update(context.Background(), 99, dto.ClassTypeRequest{Name: "x", Color: "#000000"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(context.Background(), 4))
	err = svc.Delete(context.Background(), 4)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClassTypeServiceStoreFailureIsInternal(t *testing.T) {
	repo := &classTypeStoreStub{failErr: errors.New("connection reset")}
	svc := NewClassTypeService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.ClassTypeRequest{Name: "Class 1", Color: "#ff6b6b"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}
