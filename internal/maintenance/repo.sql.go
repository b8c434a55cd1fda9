package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscanteen/canteen-api/internal/platform/db"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const ruleColumns = `is_active, title, message, estimated_time, contact_info, targeting_type, specific_users, target_departments, target_years, year_type, updated_by, updated_at`

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	err := row.Scan(&r.IsActive, &r.Title, &r.Message, &r.EstimatedTime, &r.ContactInfo,
		&r.TargetingType, &r.SpecificUsers, &r.TargetDepartments, &r.TargetYears,
		&r.YearType, &r.UpdatedBy, &r.UpdatedAt)
	return r, err
}

// GetRule returns the stored rule, or the default rule before the first
// admin edit ever lands.
func (r *PGRepository) GetRule(ctx context.Context) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM maintenance_rule WHERE id = 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultRule(), nil
		}
		return Rule{}, err
	}
	return rule, nil
}

// UpdateRule merges non-nil patch fields into the singleton row and returns
// the merged record. The merge happens in one UPDATE so a concurrent edit
// cannot interleave field-by-field; seeding the row and merging into it run
// in the same transaction.
func (r *PGRepository) UpdateRule(ctx context.Context, patch Patch, updatedBy int64) (Rule, error) {
	var rule Rule
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := ensureRuleRow(ctx, tx); err != nil {
			return err
		}
		var err error
		rule, err = scanRule(tx.QueryRow(ctx, `
			UPDATE maintenance_rule SET
				is_active          = COALESCE($1, is_active),
				title              = COALESCE($2, title),
				message            = COALESCE($3, message),
				estimated_time     = COALESCE($4, estimated_time),
				contact_info       = COALESCE($5, contact_info),
				targeting_type     = COALESCE($6, targeting_type),
				specific_users     = COALESCE($7, specific_users),
				target_departments = COALESCE($8, target_departments),
				target_years       = COALESCE($9, target_years),
				year_type          = COALESCE($10, year_type),
				updated_by         = $11,
				updated_at         = NOW()
			WHERE id = 1
			RETURNING `+ruleColumns,
			patch.IsActive, patch.Title, patch.Message, patch.EstimatedTime, patch.ContactInfo,
			patch.TargetingType, patch.SpecificUsers, patch.TargetDepartments, patch.TargetYears,
			patch.YearType, updatedBy))
		return err
	})
	if err != nil {
		return Rule{}, err
	}
	return rule, nil
}

func ensureRuleRow(ctx context.Context, tx pgx.Tx) error {
	def := DefaultRule()
	_, err := tx.Exec(ctx, `
		INSERT INTO maintenance_rule (id, is_active, title, message, targeting_type, year_type)
		VALUES (1, $1, '', '', $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		def.IsActive, def.TargetingType, def.YearType)
	return err
}

const windowColumns = `id, name, starts_at, ends_at, patch, activated_at, deactivated_at, created_by, created_at`

func scanWindow(row pgx.Row) (Window, error) {
	var w Window
	err := row.Scan(&w.ID, &w.Name, &w.StartsAt, &w.EndsAt, &w.Patch,
		&w.ActivatedAt, &w.DeactivatedAt, &w.CreatedBy, &w.CreatedAt)
	return w, err
}

// CreateWindow inserts a scheduled window.
func (r *PGRepository) CreateWindow(ctx context.Context, w Window) (*Window, error) {
	created, err := scanWindow(r.pool.QueryRow(ctx, `
		INSERT INTO maintenance_windows (name, starts_at, ends_at, patch, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+windowColumns,
		w.Name, w.StartsAt.UTC(), w.EndsAt.UTC(), w.Patch, w.CreatedBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return nil, ErrWindowOverlap
		}
		return nil, err
	}
	return &created, nil
}

// ListWindows returns windows ordered by start time.
func (r *PGRepository) ListWindows(ctx context.Context) ([]Window, error) {
	return r.queryWindows(ctx, `SELECT `+windowColumns+` FROM maintenance_windows ORDER BY starts_at`)
}

// DeleteWindow removes a window that has not started yet.
func (r *PGRepository) DeleteWindow(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM maintenance_windows WHERE id = $1 AND activated_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

// DueActivations lists windows that should be switched on.
func (r *PGRepository) DueActivations(ctx context.Context, now time.Time) ([]Window, error) {
	return r.queryWindows(ctx, `SELECT `+windowColumns+` FROM maintenance_windows
		WHERE starts_at <= $1 AND ends_at > $1 AND activated_at IS NULL ORDER BY starts_at`, now.UTC())
}

// DueDeactivations lists windows that should be switched off.
func (r *PGRepository) DueDeactivations(ctx context.Context, now time.Time) ([]Window, error) {
	return r.queryWindows(ctx, `SELECT `+windowColumns+` FROM maintenance_windows
		WHERE ends_at <= $1 AND activated_at IS NOT NULL AND deactivated_at IS NULL ORDER BY ends_at`, now.UTC())
}

func (r *PGRepository) queryWindows(ctx context.Context, sql string, args ...any) ([]Window, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var windows []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// MarkActivated stamps a window as applied.
func (r *PGRepository) MarkActivated(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE maintenance_windows SET activated_at = $2 WHERE id = $1 AND activated_at IS NULL`, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

// MarkDeactivated stamps a window as ended.
func (r *PGRepository) MarkDeactivated(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE maintenance_windows SET deactivated_at = $2 WHERE id = $1 AND deactivated_at IS NULL`, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
