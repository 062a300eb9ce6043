package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/admindash/internal/catalog"
	jobmetrics "github.com/odyssey-erp/admindash/internal/jobs"
	"github.com/odyssey-erp/admindash/internal/listclient"
	"github.com/odyssey-erp/admindash/internal/products"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewListingWarmTaskRejectsUnknownResource(t *testing.T) {
	_, err := NewListingWarmTask("invoices", 1, 10)
	require.Error(t, err)

	task, err := NewListingWarmTask("tasks", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, TaskListingWarm, task.Type())
	assert.JSONEq(t, `{"resource":"tasks","pages":2,"page_size":10}`, string(task.Payload()))
}

func TestDatasetReloadJobPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, catalog.ReloadChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	task, err := NewDatasetReloadTask("products")
	require.NoError(t, err)
	job := NewDatasetReloadJob(client, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(ctx, task))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "products", msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("reload request not published")
	}
}

func TestDatasetReloadJobWithoutListeners(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	task, err := NewDatasetReloadTask("")
	require.NoError(t, err)
	job := NewDatasetReloadJob(client, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	assert.NoError(t, job.Handle(context.Background(), task))
}

func TestDatasetReloadJobSkipsMalformedPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	job := NewDatasetReloadJob(client, discardLogger(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskDatasetReload, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func newProductServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	dataset := products.NewDataset(products.EmbeddedLoader())
	require.NoError(t, dataset.Reload(context.Background()))
	svc := products.NewService(discardLogger(), dataset, nil, nil, 25)

	var hits atomic.Int32
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits.Add(1)
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/products", products.NewHandler(discardLogger(), svc).MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestListingWarmJobStopsAtLastPage(t *testing.T) {
	srv, hits := newProductServer(t)
	client, err := listclient.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	job := NewListingWarmJob(client, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewListingWarmTask("products", 10, 40)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	// 100 products at 40 per page.
	assert.Equal(t, int32(3), hits.Load())
}

func TestListingWarmJobDefaultsPages(t *testing.T) {
	srv, hits := newProductServer(t)
	client, err := listclient.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	job := NewListingWarmJob(client, discardLogger(), nil)

	payload, err := json.Marshal(ListingWarmPayload{Resource: "products"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskListingWarm, payload)))

	assert.Equal(t, int32(defaultWarmPages), hits.Load())
}

func TestListingWarmJobReportsServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to fetch tasks"}`))
	}))
	t.Cleanup(srv.Close)
	client, err := listclient.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	job := NewListingWarmJob(client, discardLogger(), nil)

	task, err := NewListingWarmTask("tasks", 2, 10)
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)

	require.Error(t, err)
	assert.True(t, listclient.IsStatus(err, http.StatusInternalServerError))
}

func TestListingWarmJobRejectsUnknownResource(t *testing.T) {
	client, err := listclient.NewClient("http://127.0.0.1:1", nil)
	require.NoError(t, err)
	job := NewListingWarmJob(client, discardLogger(), nil)

	err = job.Handle(context.Background(), asynq.NewTask(TaskListingWarm, []byte(`{"resource":"invoices"}`)))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHandlerHealth(t *testing.T) {
	cases := map[string]struct {
		inspector QueueInspector
		status    int
		body      string
	}{
		"no inspector": {nil, http.StatusOK, `{"queue":"default","pending":0,"active":0,"retry":0}`},
		"queue info": {
			stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Active: 1, Retry: 2}},
			http.StatusOK, `{"queue":"default","pending":4,"active":1,"retry":2}`,
		},
		"redis down": {
			stubInspector{err: errors.New("dial tcp: refused")},
			http.StatusServiceUnavailable, `{"error":"Service Unavailable"}`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, discardLogger()).MountRoutes)
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

			assert.Equal(t, tc.status, rr.Code)
			assert.JSONEq(t, tc.body, rr.Body.String())
		})
	}
}
