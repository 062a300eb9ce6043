package listclient

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/odyssey-erp/admindash/internal/debounce"
	"github.com/odyssey-erp/admindash/internal/listing"
)

// State is what a list view renders.
type State[T any] struct {
	Data      []T
	IsLoading bool
	Err       string
	PageCount int
	RowCount  int
}

// Options configures a Fetcher. Zero values pick the defaults.
type Options struct {
	// Codec maps list state to request parameters.
	Codec listing.Codec
	// Initial seeds the list state, typically from the current address bar.
	Initial url.Values
	// Clock drives the search debounce.
	Clock debounce.Clock
	// SearchDelay is the quiet period before a search term is applied.
	SearchDelay time.Duration
	// Sync receives the encoded parameters after every state change.
	Sync   URLSyncer
	Logger *slog.Logger
}

// Fetcher owns the request lifecycle of one list view. Every change of
// page, page size, filters or sort issues exactly one request. Responses
// are applied only when they answer the most recent request, so a slow
// stale response can never overwrite newer state.
type Fetcher[T any] struct {
	client *Client
	path   string
	codec  listing.Codec
	logger *slog.Logger

	search *debounce.Debouncer
	sync   *urlSync

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	query       listing.Query
	state       State[T]
	searchInput string
	seq         uint64
	closed      bool
	listeners   []func(State[T])

	inflight sync.WaitGroup
}

// NewFetcher builds a fetcher for the list at path. Call Start to issue the
// first request.
func NewFetcher[T any](client *Client, path string, opts Options) *Fetcher[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Fetcher[T]{
		client: client,
		path:   path,
		codec:  opts.Codec,
		logger: logger,
		search: debounce.New(opts.Clock, opts.SearchDelay),
		ctx:    ctx,
		cancel: cancel,
		query:  opts.Codec.Decode(opts.Initial),
		state:  State[T]{Data: make([]T, 0)},
	}
	if col, ok := f.codec.SearchColumn(); ok {
		if filter, ok := f.query.Filter(col.ID); ok {
			f.searchInput = filter.Term
		}
	}
	if opts.Sync != nil {
		f.sync = newURLSync(opts.Sync)
	}
	return f
}

// Subscribe registers fn to receive every state change. fn runs on the
// goroutine that changed the state and must not call back into the Fetcher
// synchronously.
func (f *Fetcher[T]) Subscribe(fn func(State[T])) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// State returns a snapshot of the current state.
func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// Query returns the list state the latest request was issued for.
func (f *Fetcher[T]) Query() listing.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query.Clone()
}

// SearchInput is the visible search text, which may run ahead of the query
// while the debounce is pending.
func (f *Fetcher[T]) SearchInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchInput
}

// Start issues the request for the initial state.
func (f *Fetcher[T]) Start() {
	f.change(func(q listing.Query) listing.Query { return q })
}

// SetPage moves to page.
func (f *Fetcher[T]) SetPage(page int) {
	f.change(func(q listing.Query) listing.Query { return q.WithPage(page) })
}

// SetPageSize changes the page size.
func (f *Fetcher[T]) SetPageSize(size int) {
	f.change(func(q listing.Query) listing.Query { return q.WithPageSize(size) })
}

// SetFilter replaces the selected values of a multi-select column and goes
// back to page 1.
func (f *Fetcher[T]) SetFilter(field string, values ...string) {
	f.change(func(q listing.Query) listing.Query {
		return q.WithFilter(listing.Filter{Field: field, Values: slices.Clone(values)})
	})
}

// SetSort changes the ordering. A nil sort clears it.
func (f *Fetcher[T]) SetSort(s *listing.Sort) {
	f.change(func(q listing.Query) listing.Query { return q.WithSort(s) })
}

// SetSearch updates the visible search input now and applies it to the
// query once typing has paused for the debounce delay.
func (f *Fetcher[T]) SetSearch(term string) {
	col, ok := f.codec.SearchColumn()
	if !ok {
		return
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.searchInput = term
	f.mu.Unlock()

	f.search.Debounce(func() {
		f.change(func(q listing.Query) listing.Query {
			return q.WithFilter(listing.Filter{Field: col.ID, Term: term})
		})
	})
}

// FlushSearch applies a pending search term immediately.
func (f *Fetcher[T]) FlushSearch() bool {
	return f.search.Flush()
}

// ClearFilters drops every filter, including a search still being debounced.
func (f *Fetcher[T]) ClearFilters() {
	f.search.Cancel()
	f.mu.Lock()
	f.searchInput = ""
	f.mu.Unlock()
	f.change(func(q listing.Query) listing.Query { return q.WithFilters(nil) })
}

// Refetch repeats the request for the current state and waits for it.
func (f *Fetcher[T]) Refetch(ctx context.Context) State[T] {
	f.mu.Lock()
	if f.closed {
		st := f.snapshot()
		f.mu.Unlock()
		return st
	}
	seq, q := f.begin()
	f.mu.Unlock()
	f.publish()

	// Close must be able to abort this request too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(f.ctx, cancel)
	defer stop()

	f.run(ctx, seq, q)
	return f.State()
}

// Wait blocks until every issued request has completed.
func (f *Fetcher[T]) Wait() {
	f.inflight.Wait()
}

// Close cancels a pending search, aborts in-flight requests and detaches
// the fetcher. Later calls are no-ops.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.search.Cancel()
	f.cancel()
	f.inflight.Wait()
	if f.sync != nil {
		f.sync.close()
	}
}

// change derives the next query, mirrors it to the URL syncer and issues
// its request.
func (f *Fetcher[T]) change(next func(listing.Query) listing.Query) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.query = next(f.query)
	params := f.codec.Encode(f.query)
	seq, q := f.begin()
	f.mu.Unlock()

	if f.sync != nil {
		f.sync.push(params)
	}
	f.publish()

	go f.run(f.ctx, seq, q)
}

// begin allocates the next sequence number and registers the request with
// the in-flight group. Callers hold f.mu, which orders the Add before the
// Wait in Close.
func (f *Fetcher[T]) begin() (uint64, listing.Query) {
	f.inflight.Add(1)
	f.seq++
	f.state.IsLoading = true
	return f.seq, f.query.Clone()
}

func (f *Fetcher[T]) run(ctx context.Context, seq uint64, q listing.Query) {
	defer f.inflight.Done()
	page, err := Fetch[T](ctx, f.client, f.path, f.codec.Encode(q))

	f.mu.Lock()
	if f.closed || seq != f.seq {
		f.mu.Unlock()
		f.logger.Debug("discarding stale list response", slog.String("path", f.path), slog.Uint64("seq", seq))
		return
	}
	if err != nil {
		f.state = State[T]{Data: make([]T, 0), Err: err.Error()}
	} else {
		f.state = State[T]{Data: page.Data, PageCount: page.PageCount, RowCount: page.RowCount}
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("list request failed", slog.String("path", f.path), slog.Any("error", err))
	}
	f.publish()
}

func (f *Fetcher[T]) snapshot() State[T] {
	st := f.state
	st.Data = slices.Clone(f.state.Data)
	if st.Data == nil {
		st.Data = make([]T, 0)
	}
	return st
}

func (f *Fetcher[T]) publish() {
	f.mu.Lock()
	st := f.snapshot()
	listeners := slices.Clone(f.listeners)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}
