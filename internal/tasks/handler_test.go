package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/admindash/internal/catalog"
	"github.com/odyssey-erp/admindash/internal/listing"
)

func newTestRouter(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/tasks", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes)
	return r
}

func TestHandlerListPagination(t *testing.T) {
	router := newTestRouter(t, newTestService(t, fixtureTasks()...))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks?page=2&pageSize=3", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var page listing.Page[Task]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 4, page.RowCount)
	assert.Equal(t, 2, page.PageCount)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "TASK-1004", page.Data[0].ID)
}

func TestHandlerListDefaultsTo25Rows(t *testing.T) {
	dataset := NewDataset(EmbeddedLoader())
	require.NoError(t, dataset.Reload(context.Background()))
	router := newTestRouter(t, NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), dataset, nil, nil, 0))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var page listing.Page[Task]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Len(t, page.Data, 25)
	assert.Equal(t, 4, page.PageCount)
	assert.Equal(t, 100, page.RowCount)
}

func TestHandlerListFailure(t *testing.T) {
	dataset := NewDataset(catalog.LoaderFunc[Task](func(context.Context) ([]Task, error) {
		return nil, errors.New("disk on fire")
	}))
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), dataset, nil, nil, 0)
	router := newTestRouter(t, svc)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch tasks"}`, rr.Body.String())
}

func TestHandlerMutations(t *testing.T) {
	router := newTestRouter(t, newTestService(t, fixtureTasks()...))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tasks",
		strings.NewReader(`{"title":"Audit logs","status":"todo","label":"feature","priority":"medium"}`)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tasks/bulk-update",
		strings.NewReader(`{"ids":["TASK-9000","TASK-1002"],"priority":"high"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"updated":2}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks?priority=high", nil))
	var page listing.Page[Task]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 4, page.RowCount)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/tasks/TASK-0001", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerFilters(t *testing.T) {
	router := newTestRouter(t, newTestService(t))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks/filters", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"value":"in progress"`)
}
