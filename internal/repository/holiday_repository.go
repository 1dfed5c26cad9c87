package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
)

// HolidayRepository persists holidays keyed by date.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository instantiates the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns holidays matching the year/month filter ordered by date.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, date, name, created_at FROM holidays WHERE 1=1`)
	var args []interface{}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		fmt.Fprintf(&query, " AND EXTRACT(YEAR FROM date) = $%d", len(args))
	}
	if filter.Month > 0 {
		args = append(args, filter.Month)
		fmt.Fprintf(&query, " AND EXTRACT(MONTH FROM date) = $%d", len(args))
	}
	query.WriteString(" ORDER BY date ASC")

	var items []models.Holiday
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return items, nil
}

// ListRange returns holidays dated in [start, end].
func (r *HolidayRepository) ListRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error) {
	var items []models.Holiday
	const query = `SELECT id, date, name, created_at FROM holidays WHERE date BETWEEN $1 AND $2 ORDER BY date ASC`
	if err := r.db.SelectContext(ctx, &items, query, calendar.Key(start), calendar.Key(end)); err != nil {
		return nil, fmt.Errorf("list holidays in range: %w", err)
	}
	return items, nil
}

// Upsert adds a holiday or renames the one already on that date.
func (r *HolidayRepository) Upsert(ctx context.Context, holiday *models.Holiday) error {
	return upsertHoliday(ctx, r.db, holiday)
}

// DeleteByDate removes the holiday on date. Returns sql.ErrNoRows when none exists.
func (r *HolidayRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = $1`, calendar.Key(date))
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return requireAffected(res)
}

// ReplaceAll swaps the whole holiday set in one transaction.
func (r *HolidayRepository) ReplaceAll(ctx context.Context, holidays []models.Holiday) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace holidays: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM holidays`); err != nil {
		return fmt.Errorf("clear holidays: %w", err)
	}
	for i := range holidays {
		if err = upsertHoliday(ctx, tx, &holidays[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace holidays: %w", err)
	}
	return nil
}

func upsertHoliday(ctx context.Context, q sqlx.QueryerContext, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO holidays (id, date, name, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name
RETURNING id, date, name, created_at`
	if err := q.QueryRowxContext(ctx, query, holiday.ID, calendar.Key(holiday.Date), holiday.Name, holiday.CreatedAt).StructScan(holiday); err != nil {
		return fmt.Errorf("upsert holiday: %w", err)
	}
	return nil
}
