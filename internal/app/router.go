package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/admindash/internal/i18n"
	"github.com/odyssey-erp/admindash/internal/navigation"
	"github.com/odyssey-erp/admindash/internal/observability"
	"github.com/odyssey-erp/admindash/internal/preferences"
	"github.com/odyssey-erp/admindash/internal/products"
	"github.com/odyssey-erp/admindash/internal/tasks"
	"github.com/odyssey-erp/admindash/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	ProductsHandler    *products.Handler
	TasksHandler       *tasks.Handler
	PreferencesHandler *preferences.Handler
	I18nHandler        *i18n.Handler
	NavigationHandler  *navigation.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics

	// AccessLog toggles chi's request logger.
	AccessLog bool
}

// NewRouter constructs the chi.Router with admindash defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.AccessLog {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.TasksHandler != nil {
			r.Route("/tasks", params.TasksHandler.MountRoutes)
		}
		if params.PreferencesHandler != nil {
			r.Route("/preferences", params.PreferencesHandler.MountRoutes)
		}
		if params.I18nHandler != nil {
			r.Route("/i18n", params.I18nHandler.MountRoutes)
		}
		if params.NavigationHandler != nil {
			r.Route("/navigation", params.NavigationHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
