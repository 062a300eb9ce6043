package products

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/admindash/internal/listing"
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// ImportRateLimit caps CSV uploads per client IP per minute.
const ImportRateLimit = 10

// Handler exposes the product API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the product handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the product endpoints under the current router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", listing.Handler(h.logger, h.service.Lists()))
	r.Get("/filters", h.filters)
	r.Get("/export", h.export)
	r.Post("/", h.create)
	r.Post("/bulk-delete", h.bulkDelete)
	r.Post("/bulk-category", h.bulkCategory)
	r.With(httprate.Limit(ImportRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/import", h.importCSV)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) filters(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, FilterOptions())
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete product", err)
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
		h.fail(w, "bulk delete products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"deleted": removed})
}

func (h *Handler) bulkCategory(w http.ResponseWriter, r *http.Request) {
	var req BulkCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.service.BulkCategory(r.Context(), req)
	if err != nil {
		h.fail(w, "bulk update products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		httpx.Error(w, http.StatusBadRequest, "Please upload a file")
		return
	}
	defer file.Close()

	result, err := h.service.Import(r.Context(), file)
	if err != nil {
		h.fail(w, "import products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	selected, err := h.service.Select(r.Context(), ids)
	if err != nil {
		h.fail(w, "export products", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "products.csv"))
	if err := WriteCSV(w, selected); err != nil {
		h.logger.Error("write product csv", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	var verr *httpx.ValidationError
	if !errors.As(err, &verr) && !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrBadRequest) {
		h.logger.Error(action+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
