package navigation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// Handler exposes the sidebar and breadcrumbs.
type Handler struct {
	sidebar Sidebar
}

// NewHandler builds the navigation handler.
func NewHandler(sidebar Sidebar) *Handler {
	return &Handler{sidebar: sidebar}
}

// MountRoutes registers the navigation endpoints under the current router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sidebar", h.showSidebar)
	r.Get("/breadcrumbs", h.breadcrumbs)
}

func (h *Handler) showSidebar(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.sidebar)
}

func (h *Handler) breadcrumbs(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		httpx.Error(w, http.StatusBadRequest, "path is required")
		return
	}
	body := map[string]any{"crumbs": Breadcrumbs(path)}
	if active, ok := h.sidebar.Active(path); ok {
		body["active"] = active
	}
	httpx.JSON(w, http.StatusOK, body)
}
