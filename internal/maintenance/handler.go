package maintenance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/platform/httpx"
)

// Handler exposes the maintenance HTTP surface: the public status probe the
// clients poll, and the admin rule/window management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// Status answers the poll every client runs: is the caller blocked right
// now, and with which notice. Always 200; a fetch failure reads as "not
// blocked".
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	user := identity.FromContext(r.Context())
	httpx.JSON(w, http.StatusOK, h.service.Evaluate(r.Context(), user))
}

// Show returns the full current rule to the admin UI.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.Current(r.Context())
	if err != nil {
		h.logger.Error("read maintenance rule", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

// Update merges a partial rule edit and returns the merged record. A write
// failure surfaces as an error response so the admin UI can roll back its
// optimistic toggle.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if patch.IsZero() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "empty patch")
		return
	}
	if err := h.validator.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := identity.FromContext(r.Context())
	rule, err := h.service.Update(r.Context(), patch, actor.UserID)
	if err != nil {
		h.logger.Error("update maintenance rule", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

// ListWindows returns all scheduled windows.
func (h *Handler) ListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.service.ListWindows(r.Context())
	if err != nil {
		h.logger.Error("list maintenance windows", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if windows == nil {
		windows = []Window{}
	}
	httpx.JSON(w, http.StatusOK, windows)
}

// CreateWindow schedules a maintenance window.
func (h *Handler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	var req CreateWindowRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := identity.FromContext(r.Context())
	window, err := h.service.ScheduleWindow(r.Context(), req, actor.UserID)
	if err != nil {
		if !errors.Is(err, ErrInvalidWindow) && !errors.Is(err, ErrWindowOverlap) {
			h.logger.Error("create maintenance window", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, window)
}

// DeleteWindow cancels a window that has not started.
func (h *Handler) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid window id")
		return
	}

	actor := identity.FromContext(r.Context())
	if err := h.service.CancelWindow(r.Context(), id, actor.UserID); err != nil {
		if !errors.Is(err, ErrWindowNotFound) {
			h.logger.Error("cancel maintenance window", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
