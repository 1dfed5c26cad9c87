package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-schedule-api/internal/models"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

func newExportFixture(t *testing.T) *ExportService {
	stats, store := newStatisticsFixture(t, nil)
	store.names[1] = "Math"
	holidays := &holidayStoreStub{items: []models.Holiday{{Date: mustDate(t, "2025-09-02"), Name: "School Day Off"}}}
	ranges := &rangeStub{current: &models.SemesterRange{ID: "r1", StartDate: mustDate(t, "2025-09-01"), EndDate: mustDate(t, "2025-09-30")}}
	return NewExportService(stats, store, holidays, ranges, nil, nil, nil, nil)
}

func TestExportServiceStatisticsCSV(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Statistics(context.Background(), "2025-09-01", "2025-09-02", "")
	require.NoError(t, err)
	assert.Equal(t, "statistics_2025-09-01_2025-09-02.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	body := string(file.Data)
	assert.Contains(t, body, "Class,Total,Completed,Remaining,Progress (%)")
	assert.Contains(t, body, "Math,2,2,0,100")
	assert.Contains(t, body, "Total,3,2,1,67")
}

func TestExportServiceStatisticsPDFXLSXAndBadFormat(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Statistics(context.Background(), "2025-09-01", "2025-09-02", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))

	file, err = svc.Statistics(context.Background(), "2025-09-01", "2025-09-02", "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "statistics_2025-09-01_2025-09-02.xlsx", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Data), "PK"))

	_, err = svc.Statistics(context.Background(), "2025-09-01", "2025-09-02", "docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEntriesCSV(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.EntriesCSV(context.Background(), "2025-09-01", "2025-09-01")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(file.Data), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,weekday,period,class,status,notes", lines[0])
	assert.Equal(t, "2025-09-01,monday,1,Math,true,", lines[1])
	assert.Equal(t, "2025-09-01,monday,2,Class 2,false,", lines[2])
}

func TestExportServiceCalendarICSUsesCurrentRange(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.CalendarICS(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "text/calendar; charset=utf-8", file.ContentType)

	body := string(file.Data)
	assert.Contains(t, body, "SUMMARY:School Day Off")
	assert.Contains(t, body, "holiday-2025-09-02@class-schedule")
	assert.Equal(t, 4, strings.Count(body, "BEGIN:VEVENT"))
}
