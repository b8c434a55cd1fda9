package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/platform/httpx"
	"github.com/campuscanteen/canteen-api/internal/shared"
)

// ErrInvalidWindow indicates an inconsistent window schedule.
var ErrInvalidWindow = fmt.Errorf("%w: window must end after it starts", httpx.ErrValidation)

// ScheduleNotifier is called after the window schedule changes so the
// worker can sweep immediately instead of waiting for the next cron tick.
type ScheduleNotifier func(ctx context.Context, at time.Time)

// Service exposes the maintenance operations used by handlers, the gate and
// the background worker.
type Service struct {
	repo   Repository
	cache  *Cache
	audit  *shared.AuditLogger
	logger *slog.Logger
	notify ScheduleNotifier
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// OnScheduleChange registers the notifier invoked when windows are created
// or cancelled.
func (s *Service) OnScheduleChange(fn ScheduleNotifier) {
	s.notify = fn
}

// Current returns the rule every client evaluates against, served from
// cache within the propagation bound.
func (s *Service) Current(ctx context.Context) (Rule, error) {
	return s.cache.Fetch(ctx, s.repo.GetRule)
}

// Evaluate answers the public status question for one identity. An error
// reading the rule resolves to "not blocked": a transient outage must never
// lock the whole product (fail open).
func (s *Service) Evaluate(ctx context.Context, user *identity.Identity) StatusResponse {
	rule, err := s.Current(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("maintenance rule fetch failed, failing open", slog.Any("error", err))
		}
		return StatusResponse{Blocked: false}
	}
	if !IsBlocked(rule, user) {
		return StatusResponse{Blocked: false}
	}
	notice := rule.Notice()
	return StatusResponse{Blocked: true, Maintenance: &notice}
}

// Update merges the patch into the stored rule, records the edit in the
// audit trail and invalidates the cache. Returns the merged record.
func (s *Service) Update(ctx context.Context, patch Patch, updatedBy int64) (Rule, error) {
	rule, err := s.repo.UpdateRule(ctx, patch, updatedBy)
	if err != nil {
		return Rule{}, fmt.Errorf("update maintenance rule: %w", err)
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  updatedBy,
		Action:   "maintenance.rule.update",
		Entity:   "maintenance_rule",
		EntityID: "1",
		Meta: map[string]any{
			"is_active":      rule.IsActive,
			"targeting_type": rule.TargetingType,
		},
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit maintenance update", slog.Any("error", err))
	}

	if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
		// Stale for at most one TTL; the next poll corrects it.
		s.logger.Warn("invalidate maintenance cache", slog.Any("error", err))
	}

	return rule, nil
}

// ScheduleWindow validates and stores a maintenance window.
func (s *Service) ScheduleWindow(ctx context.Context, req CreateWindowRequest, createdBy int64) (*Window, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidWindow
	}
	w, err := s.repo.CreateWindow(ctx, Window{
		Name:      req.Name,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Patch:     req.Patch,
		CreatedBy: createdBy,
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "maintenance.window.create",
		Entity:   "maintenance_window",
		EntityID: strconv.FormatInt(w.ID, 10),
		Meta:     map[string]any{"starts_at": w.StartsAt, "ends_at": w.EndsAt},
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit window create", slog.Any("error", err))
	}

	if s.notify != nil {
		s.notify(ctx, time.Now().UTC())
	}
	return w, nil
}

// ListWindows returns all scheduled windows.
func (s *Service) ListWindows(ctx context.Context) ([]Window, error) {
	return s.repo.ListWindows(ctx)
}

// CancelWindow deletes a window that has not activated yet.
func (s *Service) CancelWindow(ctx context.Context, id int64, cancelledBy int64) error {
	if err := s.repo.DeleteWindow(ctx, id); err != nil {
		return err
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  cancelledBy,
		Action:   "maintenance.window.cancel",
		Entity:   "maintenance_window",
		EntityID: strconv.FormatInt(id, 10),
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit window cancel", slog.Any("error", err))
	}
	if s.notify != nil {
		s.notify(ctx, time.Now().UTC())
	}
	return nil
}

// ApplyDueWindows is invoked by the worker cron. Window starts apply the
// window's patch with the master switch forced on; window ends only force
// the switch off, leaving the display fields for the next edit. A manual
// admin edit in between simply wins, both here and in the store (last write
// wins everywhere).
func (s *Service) ApplyDueWindows(ctx context.Context, now time.Time) error {
	starts, err := s.repo.DueActivations(ctx, now)
	if err != nil {
		return fmt.Errorf("due activations: %w", err)
	}
	for _, w := range starts {
		patch := w.Patch
		active := true
		patch.IsActive = &active
		if _, err := s.Update(ctx, patch, w.CreatedBy); err != nil {
			return fmt.Errorf("activate window %d: %w", w.ID, err)
		}
		if err := s.repo.MarkActivated(ctx, w.ID, now); err != nil {
			return fmt.Errorf("mark window %d activated: %w", w.ID, err)
		}
		if s.logger != nil {
			s.logger.Info("maintenance window activated", slog.Int64("window_id", w.ID), slog.String("name", w.Name))
		}
	}

	ends, err := s.repo.DueDeactivations(ctx, now)
	if err != nil {
		return fmt.Errorf("due deactivations: %w", err)
	}
	for _, w := range ends {
		inactive := false
		if _, err := s.Update(ctx, Patch{IsActive: &inactive}, w.CreatedBy); err != nil {
			return fmt.Errorf("deactivate window %d: %w", w.ID, err)
		}
		if err := s.repo.MarkDeactivated(ctx, w.ID, now); err != nil {
			return fmt.Errorf("mark window %d deactivated: %w", w.ID, err)
		}
		if s.logger != nil {
			s.logger.Info("maintenance window ended", slog.Int64("window_id", w.ID), slog.String("name", w.Name))
		}
	}

	return nil
}
