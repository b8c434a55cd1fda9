package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/campuscanteen/canteen-api/internal/platform/httpx"
)

var (
	// ErrWindowNotFound indicates a missing maintenance window.
	ErrWindowNotFound = fmt.Errorf("%w: maintenance window", httpx.ErrNotFound)
	// ErrWindowOverlap indicates a window colliding with an existing one.
	ErrWindowOverlap = fmt.Errorf("%w: maintenance window overlaps an existing one", httpx.ErrDuplicate)
)

// Repository defines persistence for the singleton rule and the scheduled
// windows. The rule store has no history and no optimistic concurrency:
// concurrent admin edits resolve last-write-wins inside a single UPDATE.
type Repository interface {
	GetRule(ctx context.Context) (Rule, error)
	// UpdateRule merges the supplied fields into the stored record and
	// returns the new full record.
	UpdateRule(ctx context.Context, patch Patch, updatedBy int64) (Rule, error)

	CreateWindow(ctx context.Context, w Window) (*Window, error)
	ListWindows(ctx context.Context) ([]Window, error)
	DeleteWindow(ctx context.Context, id int64) error
	// DueActivations returns windows whose start has passed but were not
	// applied yet; DueDeactivations the mirror for ended windows.
	DueActivations(ctx context.Context, now time.Time) ([]Window, error)
	DueDeactivations(ctx context.Context, now time.Time) ([]Window, error)
	MarkActivated(ctx context.Context, id int64, at time.Time) error
	MarkDeactivated(ctx context.Context, id int64, at time.Time) error
}
