package listing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeoutShort = time.Second
	tick         = 5 * time.Millisecond
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandlerServesFilteredPage(t *testing.T) {
	svc := NewService("tasks", taskSchema(), &stubSource{records: sampleTasks()}, nil, nil, 10)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=todo,done&search=&sortBy=title&sortOrder=asc", nil)
	rr := httptest.NewRecorder()

	Handler(discardLogger(), svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var page Page[task]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, []string{"TASK-5", "TASK-1", "TASK-2"}, ids(page.Data))
	assert.Equal(t, 3, page.RowCount)
	assert.Equal(t, 1, page.PageCount)
}

func TestHandlerToleratesMalformedParameters(t *testing.T) {
	svc := NewService("tasks", taskSchema(), &stubSource{records: sampleTasks()}, nil, nil, 2)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks?page=abc&pageSize=-3&bogus=1", nil)
	rr := httptest.NewRecorder()

	Handler(discardLogger(), svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var page Page[task]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.PageCount)
}

func TestHandlerOutOfRangePage(t *testing.T) {
	svc := NewService("tasks", taskSchema(), &stubSource{records: sampleTasks()}, nil, nil, 10)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks?page=9", nil)
	rr := httptest.NewRecorder()

	Handler(discardLogger(), svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[],"pageCount":1,"rowCount":5}`, rr.Body.String())
}

func TestHandlerHidesInternalErrors(t *testing.T) {
	svc := NewService("tasks", taskSchema(), &stubSource{err: errors.New("secret dsn leaked")}, nil, nil, 10)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rr := httptest.NewRecorder()

	Handler(discardLogger(), svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch tasks"}`, rr.Body.String())
}
