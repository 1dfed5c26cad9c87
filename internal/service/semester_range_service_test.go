package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

func TestSemesterRangeServiceCreatesThenReplacesCurrent(t *testing.T) {
	repo := &rangeStub{}
	svc := NewSemesterRangeService(repo, nil, nil, nil, 365)

	_, err := svc.Current(context.Background())
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	created, err := svc.UpdateCurrent(context.Background(), dto.SemesterRangeRequest{StartDate: "2025-08-01", EndDate: "2026-05-31"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSemesterName, created.Name)
	assert.Equal(t, "2025-08-01", calendar.Key(created.StartDate))

	updated, err := svc.UpdateCurrent(context.Background(), dto.SemesterRangeRequest{Name: "Spring", StartDate: "2026-03-02", EndDate: "2026-07-17"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Spring", updated.Name)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-07-17", calendar.Key(current.EndDate))
}

func TestSemesterRangeServiceRejectsBadRanges(t *testing.T) {
	svc := NewSemesterRangeService(&rangeStub{}, nil, nil, nil, 365)

	cases := []struct {
		name    string
		req     dto.SemesterRangeRequest
		message string
	}{
		{"reversed", dto.SemesterRangeRequest{StartDate: "2025-09-02", EndDate: "2025-09-01"}, "start date cannot be after end date"},
		{"too long", dto.SemesterRangeRequest{StartDate: "2025-01-01", EndDate: "2026-01-01"}, "date range cannot exceed 365 days"},
		{"bad date", dto.SemesterRangeRequest{StartDate: "2025-13-01", EndDate: "2026-01-01"}, `invalid date "2025-13-01", expected YYYY-MM-DD`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateCurrent(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.message, appErrors.FromError(err).Message)
		})
	}

	_, err := svc.UpdateCurrent(context.Background(), dto.SemesterRangeRequest{StartDate: "2025-01-01"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSemesterRangeServiceAcceptsExactly365Days(t *testing.T) {
	svc := NewSemesterRangeService(&rangeStub{}, nil, nil, nil, 365)
	_, err := svc.UpdateCurrent(context.Background(), dto.SemesterRangeRequest{StartDate: "2025-01-01", EndDate: "2025-12-31"})
	require.NoError(t, err)
}
