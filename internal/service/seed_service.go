package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
)

// SeedFile is the YAML layout of configs/seed.yaml. Template cells name a class
// type; blank cells stay free.
type SeedFile struct {
	ClassTypes []SeedClassType              `yaml:"class_types"`
	Template   map[string]map[string]string `yaml:"template"`
	Semester   *SeedSemester                `yaml:"semester"`
	Holidays   []HolidayEntry               `yaml:"holidays"`
}

// SeedClassType is one class type row.
type SeedClassType struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// SeedSemester is the semester range to install.
type SeedSemester struct {
	Name      string `yaml:"name"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

// SeedResult summarises an Apply run.
type SeedResult struct {
	ClassTypesCreated  int
	ClassTypesExisting int
	TemplateSlots      int
	Holidays           int
	Semester           *models.SemesterRange
}

// DecodeSeed reads a seed file.
func DecodeSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

type seedClassTypes interface {
	List(ctx context.Context) ([]models.ClassType, error)
	Create(ctx context.Context, req dto.ClassTypeRequest) (*models.ClassType, error)
}

type seedRanges interface {
	UpdateCurrent(ctx context.Context, req dto.SemesterRangeRequest) (*models.SemesterRange, error)
}

type seedTemplates interface {
	ReplaceTemplate(ctx context.Context, payload dto.WeeklyTemplatePayload) (models.WeeklyTemplate, error)
}

type seedHolidays interface {
	Add(ctx context.Context, req dto.HolidayRequest) (*models.Holiday, error)
}

// SeedService installs default data through the regular services, so every
// validation rule applies. Re-running it is safe: class types are matched by
// name and holidays are upserted by date.
type SeedService struct {
	classTypes seedClassTypes
	ranges     seedRanges
	templates  seedTemplates
	holidays   seedHolidays
	logger     *zap.Logger
}

// NewSeedService wires the seed service.
func NewSeedService(classTypes seedClassTypes, ranges seedRanges, templates seedTemplates, holidays seedHolidays, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{classTypes: classTypes, ranges: ranges, templates: templates, holidays: holidays, logger: logger}
}

// Apply installs the seed. It stops at the first failing section.
func (s *SeedService) Apply(ctx context.Context, seed *SeedFile) (*SeedResult, error) {
	result := &SeedResult{}

	existing, err := s.classTypes.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(existing))
	for _, ct := range existing {
		ids[strings.ToLower(ct.Name)] = ct.ID
	}
	for _, row := range seed.ClassTypes {
		if _, ok := ids[strings.ToLower(row.Name)]; ok {
			result.ClassTypesExisting++
			continue
		}
		created, err := s.classTypes.Create(ctx, dto.ClassTypeRequest{Name: row.Name, Color: row.Color})
		if err != nil {
			return nil, fmt.Errorf("class type %q: %w", row.Name, err)
		}
		ids[strings.ToLower(created.Name)] = created.ID
		result.ClassTypesCreated++
	}

	if len(seed.Template) > 0 {
		payload, err := seedTemplatePayload(seed.Template, ids)
		if err != nil {
			return nil, err
		}
		tpl, err := s.templates.ReplaceTemplate(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("template: %w", err)
		}
		result.TemplateSlots = len(tpl.Slots())
	}

	if seed.Semester != nil {
		current, err := s.ranges.UpdateCurrent(ctx, dto.SemesterRangeRequest{
			Name:      seed.Semester.Name,
			StartDate: seed.Semester.StartDate,
			EndDate:   seed.Semester.EndDate,
		})
		if err != nil {
			return nil, fmt.Errorf("semester: %w", err)
		}
		result.Semester = current
	}

	for _, row := range seed.Holidays {
		if _, err := s.holidays.Add(ctx, dto.HolidayRequest{Date: row.Date, Name: row.Name}); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", row.Date, err)
		}
		result.Holidays++
	}

	s.logger.Info("seed applied",
		zap.Int("class_types_created", result.ClassTypesCreated),
		zap.Int("template_slots", result.TemplateSlots),
		zap.Int("holidays", result.Holidays),
	)
	return result, nil
}

func seedTemplatePayload(template map[string]map[string]string, ids map[string]int64) (dto.WeeklyTemplatePayload, error) {
	payload := make(dto.WeeklyTemplatePayload, len(template))
	for day, periods := range template {
		cells := make(map[string]*int64, len(periods))
		for period, name := range periods {
			name = strings.TrimSpace(name)
			if name == "" {
				cells[period] = nil
				continue
			}
			id, ok := ids[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("template %s period %s: unknown class type %q", day, period, name)
			}
			cells[period] = &id
		}
		payload[day] = cells
	}
	return payload, nil
}
