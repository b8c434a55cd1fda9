package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscanteen/canteen-api/internal/shared"
)

// Directory provides PostgreSQL backed lookup of identity records. It is the
// in-repo stand-in for the external directory the auth collaborator fronts.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a Directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Lookup returns the identity record for a user ID.
func (d *Directory) Lookup(ctx context.Context, userID int64) (*Identity, error) {
	row := d.pool.QueryRow(ctx, `SELECT id, name, role, register_number, staff_id, department, current_study_year, joining_year, passing_out_year, is_admin FROM users WHERE id = $1 AND is_active`, userID)
	var (
		id         Identity
		regNo      *string
		staffID    *string
		department *string
	)
	err := row.Scan(&id.UserID, &id.Name, &id.Role, &regNo, &staffID, &department, &id.CurrentStudyYear, &id.JoiningYear, &id.PassingOutYear, &id.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if regNo != nil {
		id.RegisterNumber = *regNo
	}
	if staffID != nil {
		id.StaffID = *staffID
	}
	if department != nil {
		id.Department = *department
	}
	return &id, nil
}
