package listclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/admindash/internal/debounce"
	"github.com/odyssey-erp/admindash/internal/listing"
)

type row struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type rowSource []row

func (s rowSource) Records(context.Context) ([]row, error) { return s, nil }

func rowSchema() listing.Schema[row] {
	return listing.Schema[row]{
		Columns: []listing.Column{
			{ID: "status", Mode: listing.MultiSelect},
			{ID: "name", Mode: listing.Search, Param: "search"},
		},
		Match:   map[string]func(row) string{"status": func(r row) string { return r.Status }},
		Search:  []func(row) string{func(r row) string { return r.Name }},
		Compare: map[string]func(a, b row) int{"name": listing.By(func(r row) string { return r.Name })},
	}
}

func sampleRows(n int) rowSource {
	statuses := []string{"todo", "done", "backlog"}
	out := make(rowSource, n)
	for i := range out {
		out[i] = row{ID: fmt.Sprintf("R%03d", i+1), Name: fmt.Sprintf("widget %03d", i+1), Status: statuses[i%len(statuses)]}
	}
	return out
}

// listServer serves rows through the real list pipeline and records every
// query string it receives.
type listServer struct {
	*httptest.Server
	mu      sync.Mutex
	queries []url.Values
}

func newListServer(t *testing.T, rows rowSource, wrap func(http.Handler) http.Handler) *listServer {
	t.Helper()
	svc := listing.NewService("rows", rowSchema(), rows, nil, nil, 10)
	var h http.Handler = listing.Handler(nil, svc)
	if wrap != nil {
		h = wrap(h)
	}
	ls := &listServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ls.mu.Lock()
		ls.queries = append(ls.queries, r.URL.Query())
		ls.mu.Unlock()
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *listServer) requests() []url.Values {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]url.Values(nil), ls.queries...)
}

func newTestFetcher(t *testing.T, ls *listServer, opts Options) (*Fetcher[row], *debounce.FakeClock) {
	t.Helper()
	client, err := NewClient(ls.URL, ls.Client())
	require.NoError(t, err)
	clock := debounce.NewFakeClock(time.Unix(0, 0))
	opts.Codec = rowSchema().Codec(10)
	if opts.Clock == nil {
		opts.Clock = clock
	}
	f := NewFetcher[row](client, "/api/rows", opts)
	t.Cleanup(f.Close)
	return f, clock
}

func TestFetcherStartLoadsInitialState(t *testing.T) {
	ls := newListServer(t, sampleRows(25), nil)
	f, _ := newTestFetcher(t, ls, Options{Initial: url.Values{"page": {"3"}, "search": {"widget 02"}}})

	assert.Equal(t, "widget 02", f.SearchInput())
	f.Start()
	f.Wait()

	st := f.State()
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Err)
	assert.Equal(t, 6, st.RowCount)
	assert.Equal(t, 1, st.PageCount)
	assert.Empty(t, st.Data)
	require.Len(t, ls.requests(), 1)
}

func TestFetcherFilterChangeResetsPageAndIssuesOneRequest(t *testing.T) {
	ls := newListServer(t, sampleRows(30), nil)
	f, _ := newTestFetcher(t, ls, Options{Initial: url.Values{"page": {"3"}}})
	f.Start()
	f.Wait()

	f.SetFilter("status", "done", "backlog")
	f.Wait()

	reqs := ls.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "1", reqs[1].Get("page"))
	assert.Equal(t, "done,backlog", reqs[1].Get("status"))
	st := f.State()
	assert.Equal(t, 20, st.RowCount)
	assert.Len(t, st.Data, 10)
	assert.Equal(t, 1, f.Query().Page)
}

func TestFetcherPageSizeAndSort(t *testing.T) {
	ls := newListServer(t, sampleRows(30), nil)
	f, _ := newTestFetcher(t, ls, Options{})

	f.SetPage(2)
	f.Wait()
	f.SetPageSize(5)
	f.Wait()
	f.SetSort(&listing.Sort{Field: "name", Direction: listing.Desc})
	f.Wait()

	reqs := ls.requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "2", reqs[1].Get("page"))
	assert.Equal(t, "5", reqs[1].Get("pageSize"))
	assert.Equal(t, "desc", reqs[2].Get("sortOrder"))
	st := f.State()
	require.Len(t, st.Data, 5)
	assert.Equal(t, "widget 025", st.Data[0].Name)
}

func TestFetcherDebouncesSearch(t *testing.T) {
	ls := newListServer(t, sampleRows(30), nil)
	f, clock := newTestFetcher(t, ls, Options{})
	f.SetPage(2)
	f.Wait()

	for _, term := range []string{"w", "wi", "widget 01"} {
		f.SetSearch(term)
		assert.Equal(t, term, f.SearchInput())
		clock.Advance(100 * time.Millisecond)
	}
	assert.Len(t, ls.requests(), 1)
	_, applied := f.Query().Filter("name")
	assert.False(t, applied)

	clock.Advance(debounce.DefaultDelay)
	f.Wait()

	reqs := ls.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "widget 01", reqs[1].Get("search"))
	assert.Equal(t, "1", reqs[1].Get("page"))
	assert.Equal(t, 10, f.State().RowCount)
}

func TestFetcherCloseCancelsPendingSearch(t *testing.T) {
	ls := newListServer(t, sampleRows(5), nil)
	f, clock := newTestFetcher(t, ls, Options{})

	f.SetSearch("widget")
	f.Close()
	clock.Advance(time.Second)

	assert.Empty(t, ls.requests())
	f.SetPage(2)
	assert.Empty(t, ls.requests())
}

func TestFetcherClearFiltersDropsPendingSearch(t *testing.T) {
	ls := newListServer(t, sampleRows(9), nil)
	f, clock := newTestFetcher(t, ls, Options{Initial: url.Values{"status": {"todo"}}})

	f.SetSearch("widget 00")
	f.ClearFilters()
	f.Wait()
	clock.Advance(time.Second)
	f.Wait()

	reqs := ls.requests()
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].Has("status"))
	assert.False(t, reqs[0].Has("search"))
	assert.Empty(t, f.SearchInput())
	assert.Equal(t, 9, f.State().RowCount)
}

func TestFetcherDiscardsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	var slowSeen atomic.Bool
	ls := newListServer(t, sampleRows(30), func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "1" {
				slowSeen.Store(true)
				<-release
			}
			next.ServeHTTP(w, r)
		})
	})
	f, _ := newTestFetcher(t, ls, Options{})

	f.Start()
	require.Eventually(t, slowSeen.Load, time.Second, 5*time.Millisecond)
	f.SetPage(3)
	require.Eventually(t, func() bool { return !f.State().IsLoading }, time.Second, 5*time.Millisecond)
	close(release)
	f.Wait()

	st := f.State()
	require.Len(t, st.Data, 10)
	assert.Equal(t, "R021", st.Data[0].ID)
	assert.Equal(t, 3, f.Query().Page)
}

func TestFetcherFailureClearsStateAndRefetchRecovers(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	ls := newListServer(t, sampleRows(12), func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if failing.Load() {
				http.Error(w, `{"error":"Failed to fetch rows"}`, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	f, _ := newTestFetcher(t, ls, Options{})

	f.Start()
	f.Wait()
	st := f.State()
	assert.Equal(t, "Failed to fetch rows", st.Err)
	assert.NotNil(t, st.Data)
	assert.Empty(t, st.Data)
	assert.Zero(t, st.PageCount)
	assert.Zero(t, st.RowCount)

	failing.Store(false)
	st = f.Refetch(context.Background())
	assert.Empty(t, st.Err)
	assert.Equal(t, 12, st.RowCount)
	assert.Len(t, st.Data, 10)
}

func TestFetcherCloseAbortsPendingRefetch(t *testing.T) {
	release := make(chan struct{})
	ls := newListServer(t, sampleRows(3), func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
				next.ServeHTTP(w, r)
			case <-r.Context().Done():
			}
		})
	})
	t.Cleanup(func() { close(release) })
	client, err := NewClient(ls.URL, ls.Client())
	require.NoError(t, err)
	f := NewFetcher[row](client, "/api/rows", Options{Codec: rowSchema().Codec(10), Clock: debounce.NewFakeClock(time.Unix(0, 0))})

	refetched := make(chan State[row], 1)
	go func() { refetched <- f.Refetch(context.Background()) }()
	require.Eventually(t, func() bool { return len(ls.requests()) == 1 }, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		f.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a pending Refetch")
	}
	select {
	case <-refetched:
	case <-time.After(time.Second):
		t.Fatal("Refetch did not return after Close")
	}
}

func TestFetcherTransportFailure(t *testing.T) {
	ls := newListServer(t, sampleRows(3), nil)
	f, _ := newTestFetcher(t, ls, Options{})
	ls.Close()

	f.Start()
	f.Wait()

	st := f.State()
	assert.NotEmpty(t, st.Err)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Data)
}

func TestFetcherSubscribeSeesLoadingThenResult(t *testing.T) {
	ls := newListServer(t, sampleRows(3), nil)
	f, _ := newTestFetcher(t, ls, Options{})
	var mu sync.Mutex
	var loading []bool
	f.Subscribe(func(st State[row]) {
		mu.Lock()
		defer mu.Unlock()
		loading = append(loading, st.IsLoading)
	})

	f.Start()
	f.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, loading)
}

func TestFetcherSyncsURLWithoutBlocking(t *testing.T) {
	ls := newListServer(t, sampleRows(30), nil)
	gate := make(chan struct{})
	var mu sync.Mutex
	var synced []url.Values
	syncer := URLSyncFunc(func(params url.Values) {
		<-gate
		mu.Lock()
		defer mu.Unlock()
		synced = append(synced, params)
	})
	f, _ := newTestFetcher(t, ls, Options{Sync: syncer})

	// The syncer is stuck, state changes must still go through.
	for page := 1; page <= 5; page++ {
		f.SetPage(page)
	}
	f.Wait()
	assert.Equal(t, 5, f.Query().Page)
	assert.Len(t, ls.requests(), 5)

	close(gate)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(synced) > 0 && synced[len(synced)-1].Get("page") == "5"
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, len(synced), 3)
}
