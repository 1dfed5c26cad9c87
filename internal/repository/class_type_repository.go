package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/class-schedule-api/internal/models"
)

// ClassTypeRepository handles persistence for class types.
type ClassTypeRepository struct {
	db *sqlx.DB
}

// NewClassTypeRepository instantiates a class type repository.
func NewClassTypeRepository(db *sqlx.DB) *ClassTypeRepository {
	return &ClassTypeRepository{db: db}
}

// List returns every class type ordered by id.
func (r *ClassTypeRepository) List(ctx context.Context) ([]models.ClassType, error) {
	var items []models.ClassType
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name, color, created_at FROM class_types ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list class types: %w", err)
	}
	return items, nil
}

// FindByID returns a class type or sql.ErrNoRows.
func (r *ClassTypeRepository) FindByID(ctx context.Context, id int64) (*models.ClassType, error) {
	var item models.ClassType
	if err := r.db.GetContext(ctx, &item, `SELECT id, name, color, created_at FROM class_types WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistingIDs reports which of ids exist.
func (r *ClassTypeRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []int64
	if err := r.db.SelectContext(ctx, &rows, `SELECT id FROM class_types WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("check class types: %w", err)
	}
	for _, id := range rows {
		found[id] = true
	}
	return found, nil
}

// Create inserts a class type. A non-zero ID is kept so seeds can pin ids.
func (r *ClassTypeRepository) Create(ctx context.Context, item *models.ClassType) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	var row *sqlx.Row
	if item.ID > 0 {
		row = r.db.QueryRowxContext(ctx, `INSERT INTO class_types (id, name, color, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color
RETURNING id`, item.ID, item.Name, item.Color, item.CreatedAt)
	} else {
		row = r.db.QueryRowxContext(ctx, `INSERT INTO class_types (name, color, created_at) VALUES ($1, $2, $3) RETURNING id`,
			item.Name, item.Color, item.CreatedAt)
	}
	if err := row.Scan(&item.ID); err != nil {
		return fmt.Errorf("create class type: %w", err)
	}
	return nil
}

// Update modifies name and colour. Returns sql.ErrNoRows when the id is unknown.
func (r *ClassTypeRepository) Update(ctx context.Context, item *models.ClassType) error {
	res, err := r.db.ExecContext(ctx, `UPDATE class_types SET name = $1, color = $2 WHERE id = $3`, item.Name, item.Color, item.ID)
	if err != nil {
		return fmt.Errorf("update class type: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a class type; its entries keep their rows with a null class.
func (r *ClassTypeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class type: %w", err)
	}
	return requireAffected(res)
}

// IsNotFound reports whether err means the addressed row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
