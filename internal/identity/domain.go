// Package identity exposes the signed-in identity consumed by the
// maintenance gate. The subsystem never authenticates anyone; it only reads
// identity already established by the auth collaborator.
package identity

import "context"

// Role classifies an account. Department and year targeting only ever
// matches students; staff and owners can be reached through specific-user
// targeting.
type Role string

const (
	RoleStudent      Role = "student"
	RoleStaff        Role = "staff"
	RoleAdmin        Role = "admin"
	RoleCanteenOwner Role = "canteen_owner"
)

// Identity is the candidate evaluated against a maintenance rule. It is
// reconstructed from the session on every request and never persisted by
// this subsystem.
type Identity struct {
	UserID           int64  `json:"user_id"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	RegisterNumber   string `json:"register_number,omitempty"`
	StaffID          string `json:"staff_id,omitempty"`
	Department       string `json:"department,omitempty"`
	CurrentStudyYear *int   `json:"current_study_year,omitempty"`
	JoiningYear      *int   `json:"joining_year,omitempty"`
	PassingOutYear   *int   `json:"passing_out_year,omitempty"`
	IsAdmin          bool   `json:"is_admin"`
}

// IsStudent reports whether the identity belongs to a student account.
func (id *Identity) IsStudent() bool {
	return id != nil && id.Role == RoleStudent
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts the identity from context. A nil result means the
// request is anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
