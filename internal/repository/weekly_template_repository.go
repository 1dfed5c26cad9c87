package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

// WeeklyTemplateRepository stores the non-empty cells of the weekly template.
type WeeklyTemplateRepository struct {
	db *sqlx.DB
}

// NewWeeklyTemplateRepository instantiates the repository.
func NewWeeklyTemplateRepository(db *sqlx.DB) *WeeklyTemplateRepository {
	return &WeeklyTemplateRepository{db: db}
}

// ListSlots returns all stored cells ordered by day and period.
func (r *WeeklyTemplateRepository) ListSlots(ctx context.Context) ([]models.TemplateSlot, error) {
	var slots []models.TemplateSlot
	if err := r.db.SelectContext(ctx, &slots, `SELECT day_of_week, period, class_type_id FROM weekly_template_slots ORDER BY day_of_week, period`); err != nil {
		return nil, fmt.Errorf("list template slots: %w", err)
	}
	return slots, nil
}

// Replace swaps the whole template in one transaction.
func (r *WeeklyTemplateRepository) Replace(ctx context.Context, slots []models.TemplateSlot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace template: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM weekly_template_slots`); err != nil {
		return fmt.Errorf("clear template: %w", err)
	}
	for _, slot := range slots {
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO weekly_template_slots (day_of_week, period, class_type_id) VALUES (:day_of_week, :period, :class_type_id)`, slot); err != nil {
			return fmt.Errorf("insert template slot: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace template: %w", err)
	}
	return nil
}
