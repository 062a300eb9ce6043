package listing

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// Handler serves GET list requests: decode parameters, run the pipeline,
// answer with a Page or a generic {"error"} body.
func Handler[T any](logger *slog.Logger, svc *Service[T]) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := svc.Codec().Decode(r.URL.Query())
		page, err := svc.List(r.Context(), q)
		if err != nil {
			logger.Error("list failed", slog.String("resource", svc.Resource()), slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch "+svc.Resource())
			return
		}
		httpx.JSON(w, http.StatusOK, page)
	}
}
