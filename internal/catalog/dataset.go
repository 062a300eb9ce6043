// Package catalog keeps the record sets served by the list endpoints in
// memory and reloads them from their backing source on demand.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

var (
	// ErrNotLoaded is returned when a dataset is read before its first load.
	ErrNotLoaded = errors.New("catalog: dataset not loaded")
	// ErrNotFound is returned when a record key is unknown.
	ErrNotFound = fmt.Errorf("catalog: record %w", httpx.ErrNotFound)
	// ErrDuplicate is returned when appending a record whose key exists.
	ErrDuplicate = fmt.Errorf("catalog: %w", httpx.ErrDuplicate)
)

// Loader reads the full record set from a backing source.
type Loader[T any] interface {
	Load(ctx context.Context) ([]T, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[T any] func(ctx context.Context) ([]T, error)

// Load implements Loader.
func (f LoaderFunc[T]) Load(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// ChangeFunc is invoked after the contents of a dataset change.
type ChangeFunc func(ctx context.Context, dataset string)

// Dataset is a named, keyed, in-memory record set safe for concurrent use.
type Dataset[T any] struct {
	name   string
	key    func(T) string
	loader Loader[T]

	mu      sync.RWMutex
	records []T
	loaded  bool

	hooksMu sync.Mutex
	hooks   []ChangeFunc
}

// NewDataset creates an empty dataset. key extracts the record identity.
func NewDataset[T any](name string, key func(T) string, loader Loader[T]) *Dataset[T] {
	return &Dataset[T]{name: name, key: key, loader: loader}
}

// Name identifies the dataset.
func (d *Dataset[T]) Name() string {
	return d.name
}

// OnChange registers fn to run after every successful reload or mutation.
func (d *Dataset[T]) OnChange(fn ChangeFunc) {
	d.hooksMu.Lock()
	defer d.hooksMu.Unlock()
	d.hooks = append(d.hooks, fn)
}

func (d *Dataset[T]) notify(ctx context.Context) {
	d.hooksMu.Lock()
	hooks := slices.Clone(d.hooks)
	d.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(ctx, d.name)
	}
}

// Reload replaces the contents with a fresh read from the loader. The
// previous contents stay in place when loading fails.
func (d *Dataset[T]) Reload(ctx context.Context) error {
	if d.loader == nil {
		return fmt.Errorf("catalog: %s has no loader", d.name)
	}
	records, err := d.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load %s: %w", d.name, err)
	}
	d.mu.Lock()
	d.records = slices.Clone(records)
	d.loaded = true
	d.mu.Unlock()
	d.notify(ctx)
	return nil
}

// Records returns a snapshot copy of every record.
func (d *Dataset[T]) Records(context.Context) ([]T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	return slices.Clone(d.records), nil
}

// Len reports the number of records held.
func (d *Dataset[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// Get looks up a record by key.
func (d *Dataset[T]) Get(key string) (T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var zero T
	if !d.loaded {
		return zero, ErrNotLoaded
	}
	idx := d.index(key)
	if idx < 0 {
		return zero, ErrNotFound
	}
	return d.records[idx], nil
}

// Append adds records at the front of the set, keeping their order.
func (d *Dataset[T]) Append(ctx context.Context, records ...T) error {
	if len(records) == 0 {
		return nil
	}
	d.mu.Lock()
	if !d.loaded {
		d.mu.Unlock()
		return ErrNotLoaded
	}
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		k := d.key(rec)
		if _, dup := seen[k]; dup || d.index(k) >= 0 {
			d.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicate, k)
		}
		seen[k] = struct{}{}
	}
	d.records = append(slices.Clone(records), d.records...)
	d.mu.Unlock()
	d.notify(ctx)
	return nil
}

// Put replaces the record with the same key.
func (d *Dataset[T]) Put(ctx context.Context, record T) error {
	d.mu.Lock()
	if !d.loaded {
		d.mu.Unlock()
		return ErrNotLoaded
	}
	idx := d.index(d.key(record))
	if idx < 0 {
		d.mu.Unlock()
		return ErrNotFound
	}
	d.records[idx] = record
	d.mu.Unlock()
	d.notify(ctx)
	return nil
}

// Modify applies fn to each record whose key is listed and reports how many
// were changed. Unknown keys are skipped.
func (d *Dataset[T]) Modify(ctx context.Context, keys []string, fn func(T) T) (int, error) {
	d.mu.Lock()
	if !d.loaded {
		d.mu.Unlock()
		return 0, ErrNotLoaded
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	next := slices.Clone(d.records)
	changed := 0
	for i, rec := range next {
		if _, ok := want[d.key(rec)]; ok {
			next[i] = fn(rec)
			changed++
		}
	}
	d.records = next
	d.mu.Unlock()
	if changed > 0 {
		d.notify(ctx)
	}
	return changed, nil
}

// Delete removes the records with the given keys and reports how many were
// removed. Unknown keys are skipped.
func (d *Dataset[T]) Delete(ctx context.Context, keys ...string) (int, error) {
	d.mu.Lock()
	if !d.loaded {
		d.mu.Unlock()
		return 0, ErrNotLoaded
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	before := len(d.records)
	// Copy so snapshots handed out by Records keep their contents.
	d.records = slices.DeleteFunc(slices.Clone(d.records), func(rec T) bool {
		_, ok := drop[d.key(rec)]
		return ok
	})
	removed := before - len(d.records)
	d.mu.Unlock()
	if removed > 0 {
		d.notify(ctx)
	}
	return removed, nil
}

func (d *Dataset[T]) index(key string) int {
	return slices.IndexFunc(d.records, func(rec T) bool { return d.key(rec) == key })
}
