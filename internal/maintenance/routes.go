package maintenance

import (
	"github.com/go-chi/chi/v5"

	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/observability"
)

// MountRoutes attaches the maintenance endpoints. The status probe is
// public. The management subtree is itself gated, but with the admin
// bypass switched on: a blocked admin can still reach the settings and
// turn maintenance off, while a non-admin targeted by the active rule sees
// the block here like anywhere else.
func (h *Handler) MountRoutes(r chi.Router, metrics *observability.Metrics) {
	r.Get("/status", h.Status)

	r.Group(func(r chi.Router) {
		r.Use(Gate(h.service, h.logger, metrics, AllowAdminAccess()))
		r.Use(identity.RequireAdmin())
		r.Get("/", h.Show)
		r.Patch("/", h.Update)
		r.Get("/windows", h.ListWindows)
		r.Post("/windows", h.CreateWindow)
		r.Delete("/windows/{id}", h.DeleteWindow)
	})
}
