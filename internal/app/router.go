package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campuscanteen/canteen-api/internal/auth"
	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/maintenance"
	"github.com/campuscanteen/canteen-api/internal/observability"
	"github.com/campuscanteen/canteen-api/internal/shared"
	"github.com/campuscanteen/canteen-api/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	IdentityProvider   identity.Provider
	AuthHandler        *auth.Handler
	MaintenanceHandler *maintenance.Handler
	MaintenanceService *maintenance.Service
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics

	// ProtectedRoutes mounts the ordering/back-office surface behind the
	// maintenance gate. Kept injectable so the gate is exercised the same
	// way in tests and in the composed binary.
	ProtectedRoutes func(chi.Router)
}

// NewRouter constructs the chi.Router with canteen defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(identity.Middleware(params.IdentityProvider, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/maintenance", func(r chi.Router) {
		params.MaintenanceHandler.MountRoutes(r, params.Metrics)
	})

	if params.ProtectedRoutes != nil {
		r.Group(func(r chi.Router) {
			r.Use(maintenance.Gate(params.MaintenanceService, params.Logger, params.Metrics))
			params.ProtectedRoutes(r)
		})
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
