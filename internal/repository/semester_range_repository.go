package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
)

const semesterRangeColumns = `id, name, start_date, end_date, created_at, updated_at`

// SemesterRangeRepository persists semester ranges. The most recently created row is current.
type SemesterRangeRepository struct {
	db *sqlx.DB
}

// NewSemesterRangeRepository instantiates the repository.
func NewSemesterRangeRepository(db *sqlx.DB) *SemesterRangeRepository {
	return &SemesterRangeRepository{db: db}
}

// List returns all ranges, newest first.
func (r *SemesterRangeRepository) List(ctx context.Context) ([]models.SemesterRange, error) {
	var items []models.SemesterRange
	if err := r.db.SelectContext(ctx, &items, `SELECT `+semesterRangeColumns+` FROM semester_ranges ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list semester ranges: %w", err)
	}
	return items, nil
}

// Current returns the newest range or sql.ErrNoRows.
func (r *SemesterRangeRepository) Current(ctx context.Context) (*models.SemesterRange, error) {
	var item models.SemesterRange
	if err := r.db.GetContext(ctx, &item, `SELECT `+semesterRangeColumns+` FROM semester_ranges ORDER BY created_at DESC LIMIT 1`); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByID returns a range or sql.ErrNoRows.
func (r *SemesterRangeRepository) FindByID(ctx context.Context, id string) (*models.SemesterRange, error) {
	var item models.SemesterRange
	if err := r.db.GetContext(ctx, &item, `SELECT `+semesterRangeColumns+` FROM semester_ranges WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a range.
func (r *SemesterRangeRepository) Create(ctx context.Context, item *models.SemesterRange) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO semester_ranges (id, name, start_date, end_date, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.Name, calendar.Key(item.StartDate), calendar.Key(item.EndDate), item.CreatedAt, item.UpdatedAt); err != nil {
		return fmt.Errorf("create semester range: %w", err)
	}
	return nil
}

// Update replaces name and both dates.
func (r *SemesterRangeRepository) Update(ctx context.Context, item *models.SemesterRange) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semester_ranges SET name = $1, start_date = $2, end_date = $3, updated_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, item.Name, calendar.Key(item.StartDate), calendar.Key(item.EndDate), item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("update semester range: %w", err)
	}
	return requireAffected(res)
}
