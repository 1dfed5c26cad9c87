package handler

import (
	"context"
	"io"
	"time"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/internal/service"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func i64(v int64) *int64 { return &v }

type classTypeServiceStub struct {
	items   []models.ClassType
	created dto.ClassTypeRequest
	deleted int64
	err     error
}

func (s *classTypeServiceStub) List(ctx context.Context) ([]models.ClassType, error) {
	return s.items, s.err
}

func (s *classTypeServiceStub) Create(ctx context.Context, req dto.ClassTypeRequest) (*models.ClassType, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = req
	return &models.ClassType{ID: 12, Name: req.Name, Color: req.Color}, nil
}

func (s *classTypeServiceStub) Update(ctx context.Context, id int64, req dto.ClassTypeRequest) (*models.ClassType, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ClassType{ID: id, Name: req.Name, Color: req.Color}, nil
}

func (s *classTypeServiceStub) Delete(ctx context.Context, id int64) error {
	s.deleted = id
	return s.err
}

type classEntryServiceStub struct {
	entries    []models.ClassEntryDetail
	byDate     string
	rangeStart string
	toggled    []dto.SlotRequest
	deleted    string
	err        error
}

func (s *classEntryServiceStub) ListRange(ctx context.Context, rawStart, rawEnd string) ([]models.ClassEntryDetail, error) {
	s.rangeStart = rawStart
	return s.entries, s.err
}

func (s *classEntryServiceStub) ListByDate(ctx context.Context, rawDate string) ([]models.ClassEntryDetail, error) {
	s.byDate = rawDate
	return s.entries, s.err
}

func (s *classEntryServiceStub) Upsert(ctx context.Context, req dto.UpsertClassEntryRequest) (*models.ClassEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ClassEntry{ID: "e-1", ClassTypeID: req.ClassTypeID, Date: day(req.Date), Period: req.Period, Status: req.Status, Notes: req.Notes}, nil
}

func (s *classEntryServiceStub) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (*models.ClassEntryDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ClassEntryDetail{ClassEntry: models.ClassEntry{ID: id, Date: day("2025-10-06"), Period: 1, Status: *req.Status}}, nil
}

func (s *classEntryServiceStub) UpdateNotes(ctx context.Context, id string, req dto.UpdateNotesRequest) (*models.ClassEntryDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ClassEntryDetail{ClassEntry: models.ClassEntry{ID: id, Date: day("2025-10-06"), Period: 1, Notes: req.Notes}}, nil
}

func (s *classEntryServiceStub) Toggle(ctx context.Context, req dto.SlotRequest) (*models.ClassEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.toggled = append(s.toggled, req)
	return &models.ClassEntry{ID: "e-1", ClassTypeID: i64(req.ClassTypeID), Date: day(req.Date), Period: req.Period, Status: true}, nil
}

func (s *classEntryServiceStub) SaveNotes(ctx context.Context, req dto.SlotNotesRequest) (*models.ClassEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ClassEntry{ID: "e-1", ClassTypeID: i64(req.ClassTypeID), Date: day(req.Date), Period: req.Period, Notes: req.Notes}, nil
}

func (s *classEntryServiceStub) Delete(ctx context.Context, id string) error {
	s.deleted = id
	return s.err
}

func (s *classEntryServiceStub) DeleteRange(ctx context.Context, rawStart, rawEnd string) (int64, error) {
	if rawStart == "" || rawEnd == "" {
		return 0, appErrors.Clone(appErrors.ErrInvalidRange, "start_date and end_date are both required")
	}
	return 3, s.err
}

type noteBufferStub struct {
	buffered []dto.SlotNotesRequest
	discard  string
}

func (s *noteBufferStub) Buffer(req dto.SlotNotesRequest) (string, error) {
	s.buffered = append(s.buffered, req)
	return service.NoteKey(req.SlotRequest), nil
}

func (s *noteBufferStub) Flush(ctx context.Context) dto.FlushNotesResponse {
	return dto.FlushNotesResponse{Saved: len(s.buffered), Failures: []dto.NoteFailure{}}
}

func (s *noteBufferStub) Discard(key string) int {
	s.discard = key
	return 1
}

func (s *noteBufferStub) Status() dto.PendingNotesResponse {
	keys := make([]string, 0, len(s.buffered))
	for _, req := range s.buffered {
		keys = append(keys, service.NoteKey(req.SlotRequest))
	}
	return dto.PendingNotesResponse{Pending: len(keys), Keys: keys, Failures: []dto.NoteFailure{}}
}

type holidayServiceStub struct {
	holidays     []models.Holiday
	filter       models.HolidayFilter
	importFormat string
	importBody   string
	err          error
}

func (s *holidayServiceStub) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	s.filter = filter
	return s.holidays, s.err
}

func (s *holidayServiceStub) Add(ctx context.Context, req dto.HolidayRequest) (*models.Holiday, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Holiday{ID: "h-1", Date: day(req.Date), Name: req.Name}, nil
}

func (s *holidayServiceStub) Remove(ctx context.Context, rawDate string) error {
	return s.err
}

func (s *holidayServiceStub) ReplaceAll(ctx context.Context, req dto.ReplaceHolidaysRequest) ([]models.Holiday, error) {
	out := make([]models.Holiday, 0, len(req.Holidays))
	for _, h := range req.Holidays {
		out = append(out, models.Holiday{Date: day(h.Date), Name: h.Name})
	}
	return out, s.err
}

func (s *holidayServiceStub) Import(ctx context.Context, format string, r io.Reader) (*dto.HolidayImportResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.importFormat = format
	s.importBody = string(body)
	return &dto.HolidayImportResult{Format: format, Imported: 1}, nil
}

type statisticsServiceStub struct {
	cached bool
	err    error
}

func (s *statisticsServiceStub) Get(ctx context.Context, rawStart, rawEnd string) (*dto.StatisticsResponse, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &dto.StatisticsResponse{StartDate: "2025-08-01", EndDate: "2026-05-31", TotalClasses: 10, CompletedClasses: 4, Progress: 40}, s.cached, nil
}

type exportServiceStub struct {
	format string
}

func (s *exportServiceStub) Statistics(ctx context.Context, rawStart, rawEnd, format string) (*service.ExportFile, error) {
	s.format = format
	if format == "docx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{Filename: "statistics_2025-08-01_2026-05-31.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Class,Total\n")}, nil
}

func (s *exportServiceStub) EntriesCSV(ctx context.Context, rawStart, rawEnd string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "entries.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("date\n")}, nil
}

func (s *exportServiceStub) CalendarICS(ctx context.Context, rawStart, rawEnd string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "calendar.ics", ContentType: "text/calendar; charset=utf-8", Data: []byte("BEGIN:VCALENDAR\r\n")}, nil
}
