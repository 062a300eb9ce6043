package tasks

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/admindash/internal/listing"
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// Handler exposes the task API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the task handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the task endpoints under the current router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", listing.Handler(h.logger, h.service.Lists()))
	r.Get("/filters", h.filters)
	r.Post("/", h.create)
	r.Post("/bulk-delete", h.bulkDelete)
	r.Post("/bulk-update", h.bulkUpdate)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) filters(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, FilterOptions())
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.fail(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		h.fail(w, "update task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	removed, err := h.service.BulkDelete(r.Context(), req)
	if err != nil {
		h.fail(w, "bulk delete tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"deleted": removed})
}

func (h *Handler) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.service.BulkUpdate(r.Context(), req)
	if err != nil {
		h.fail(w, "bulk update tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error(action+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
