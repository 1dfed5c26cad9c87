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

const (
	classEntryColumns = `e.id, e.class_type_id, e.semester_range_id, e.date, e.period, e.status, e.notes, e.created_at, e.updated_at`
	classEntryDetail  = `SELECT ` + classEntryColumns + `, ct.name AS class_name, ct.color AS class_color
FROM class_entries e
LEFT JOIN class_types ct ON ct.id = e.class_type_id`
	classEntryReturning = `RETURNING id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at`

	insertBatchSize = 500
)

// ClassEntryRepository persists dated class entries. Dates are always bound as
// YYYY-MM-DD keys so the session timezone never shifts a DATE value.
type ClassEntryRepository struct {
	db *sqlx.DB
}

// NewClassEntryRepository instantiates the repository.
func NewClassEntryRepository(db *sqlx.DB) *ClassEntryRepository {
	return &ClassEntryRepository{db: db}
}

// ReplaceResult reports the outcome of ReplaceRange.
type ReplaceResult struct {
	Existing []models.ClassEntry
	Deleted  int64
	Inserted int
}

// BuildEntries produces the rows to insert given the rows currently in the range.
type BuildEntries func(existing []models.ClassEntry) ([]models.ClassEntry, error)

// ListRange returns entries with date in [start, end] joined with their class type.
func (r *ClassEntryRepository) ListRange(ctx context.Context, start, end time.Time) ([]models.ClassEntryDetail, error) {
	var items []models.ClassEntryDetail
	query := classEntryDetail + `
WHERE e.date BETWEEN $1 AND $2
ORDER BY e.date ASC, e.period ASC`
	if err := r.db.SelectContext(ctx, &items, query, calendar.Key(start), calendar.Key(end)); err != nil {
		return nil, fmt.Errorf("list class entries: %w", err)
	}
	return items, nil
}

// ListByDate returns the entries of a single date.
func (r *ClassEntryRepository) ListByDate(ctx context.Context, date time.Time) ([]models.ClassEntryDetail, error) {
	return r.ListRange(ctx, date, date)
}

// FindByID returns an entry or sql.ErrNoRows.
func (r *ClassEntryRepository) FindByID(ctx context.Context, id string) (*models.ClassEntryDetail, error) {
	var item models.ClassEntryDetail
	if err := r.db.GetContext(ctx, &item, classEntryDetail+`
WHERE e.id = $1`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindBySlot returns the entry for (class, date, period) or sql.ErrNoRows.
func (r *ClassEntryRepository) FindBySlot(ctx context.Context, key models.SlotKey) (*models.ClassEntry, error) {
	var item models.ClassEntry
	const query = `SELECT id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at
FROM class_entries WHERE class_type_id = $1 AND date = $2 AND period = $3`
	if err := r.db.GetContext(ctx, &item, query, key.ClassTypeID, key.Date, key.Period); err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert inserts the entry or, on a (class, date, period) conflict, overwrites
// its status and notes. The stored row is written back into entry.
func (r *ClassEntryRepository) Upsert(ctx context.Context, entry *models.ClassEntry) error {
	now := time.Now().UTC()
	query := `INSERT INTO class_entries (id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (class_type_id, date, period) DO UPDATE SET
	status = EXCLUDED.status,
	notes = EXCLUDED.notes,
	semester_range_id = COALESCE(EXCLUDED.semester_range_id, class_entries.semester_range_id),
	updated_at = EXCLUDED.updated_at
` + classEntryReturning
	return r.upsertReturning(ctx, entry, query, uuid.NewString(), entry.ClassTypeID, entry.SemesterRangeID,
		calendar.Key(entry.Date), entry.Period, entry.Status, entry.Notes, now)
}

// ToggleSlot flips the status of the slot's entry, creating it completed when absent.
func (r *ClassEntryRepository) ToggleSlot(ctx context.Context, key models.SlotKey, semesterRangeID *string) (*models.ClassEntry, error) {
	query := `INSERT INTO class_entries (id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, '', $6, $6)
ON CONFLICT (class_type_id, date, period) DO UPDATE SET
	status = NOT class_entries.status,
	updated_at = EXCLUDED.updated_at
` + classEntryReturning
	var entry models.ClassEntry
	if err := r.upsertReturning(ctx, &entry, query, uuid.NewString(), key.ClassTypeID, semesterRangeID, key.Date, key.Period, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveSlotNotes sets the slot's notes, creating an incomplete entry when absent.
func (r *ClassEntryRepository) SaveSlotNotes(ctx context.Context, key models.SlotKey, semesterRangeID *string, notes string) (*models.ClassEntry, error) {
	query := `INSERT INTO class_entries (id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $7)
ON CONFLICT (class_type_id, date, period) DO UPDATE SET
	notes = EXCLUDED.notes,
	updated_at = EXCLUDED.updated_at
` + classEntryReturning
	var entry models.ClassEntry
	if err := r.upsertReturning(ctx, &entry, query, uuid.NewString(), key.ClassTypeID, semesterRangeID, key.Date, key.Period, notes, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ClassEntryRepository) upsertReturning(ctx context.Context, dest *models.ClassEntry, query string, args ...interface{}) error {
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(dest); err != nil {
		return fmt.Errorf("upsert class entry: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of an entry by id. Returns sql.ErrNoRows when absent.
func (r *ClassEntryRepository) UpdateStatus(ctx context.Context, id string, status bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE class_entries SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update class entry status: %w", err)
	}
	return requireAffected(res)
}

// UpdateNotes sets the notes of an entry by id. Returns sql.ErrNoRows when absent.
func (r *ClassEntryRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE class_entries SET notes = $1, updated_at = $2 WHERE id = $3`, notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update class entry notes: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an entry by id. Returns sql.ErrNoRows when absent.
func (r *ClassEntryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class entry: %w", err)
	}
	return requireAffected(res)
}

// DeleteRange removes every entry dated in [start, end].
func (r *ClassEntryRepository) DeleteRange(ctx context.Context, start, end time.Time) (int64, error) {
	return deleteEntryRange(ctx, r.db, start, end)
}

// BulkInsert inserts entries in one transaction.
func (r *ClassEntryRepository) BulkInsert(ctx context.Context, entries []models.ClassEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert class entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = bulkInsertEntries(ctx, tx, entries); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert class entries: %w", err)
	}
	return nil
}

// ReplaceRange reads the entries in [start, end], deletes them and inserts the
// rows produced by build, all inside one transaction. Nothing is applied unless
// every step succeeds.
func (r *ClassEntryRepository) ReplaceRange(ctx context.Context, start, end time.Time, build BuildEntries) (result ReplaceResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin replace class entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const selectQuery = `SELECT id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at
FROM class_entries WHERE date BETWEEN $1 AND $2 ORDER BY date, period FOR UPDATE`
	if err = tx.SelectContext(ctx, &result.Existing, selectQuery, calendar.Key(start), calendar.Key(end)); err != nil {
		return result, fmt.Errorf("lock class entries: %w", err)
	}

	entries, err := build(result.Existing)
	if err != nil {
		return result, err
	}

	if result.Deleted, err = deleteEntryRange(ctx, tx, start, end); err != nil {
		return result, err
	}
	if err = bulkInsertEntries(ctx, tx, entries); err != nil {
		return result, err
	}
	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit replace class entries: %w", err)
	}
	result.Inserted = len(entries)
	return result, nil
}

func deleteEntryRange(ctx context.Context, exec sqlx.ExecerContext, start, end time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx, `DELETE FROM class_entries WHERE date BETWEEN $1 AND $2`, calendar.Key(start), calendar.Key(end))
	if err != nil {
		return 0, fmt.Errorf("delete class entry range: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

func bulkInsertEntries(ctx context.Context, exec sqlx.ExecerContext, entries []models.ClassEntry) error {
	now := time.Now().UTC()
	for offset := 0; offset < len(entries); offset += insertBatchSize {
		batch := entries[offset:min(offset+insertBatchSize, len(entries))]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO class_entries (id, class_type_id, semester_range_id, date, period, status, notes, created_at, updated_at) VALUES `)
		args := make([]interface{}, 0, len(batch)*8)
		for i := range batch {
			entry := &batch[i]
			if entry.ID == "" {
				entry.ID = uuid.NewString()
			}
			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = now
			}
			entry.UpdatedAt = now
			if i > 0 {
				sb.WriteString(", ")
			}
			n := len(args)
			fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)
			args = append(args, entry.ID, entry.ClassTypeID, entry.SemesterRangeID, calendar.Key(entry.Date),
				entry.Period, entry.Status, entry.Notes, entry.CreatedAt, entry.UpdatedAt)
		}
		if _, err := exec.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("bulk insert class entries: %w", err)
		}
	}
	return nil
}
