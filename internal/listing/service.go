package listing

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Source supplies the full record set of a resource.
type Source[T any] interface {
	Records(ctx context.Context) ([]T, error)
}

// CacheObserver receives list cache outcomes, typically for metrics.
type CacheObserver interface {
	ObserveListCache(resource string, hit bool)
}

// Service answers list queries for one resource, consulting the page cache
// and collapsing identical concurrent queries into a single computation.
type Service[T any] struct {
	resource string
	schema   Schema[T]
	codec    Codec
	source   Source[T]
	cache    *Cache
	observer CacheObserver
	group    singleflight.Group
}

// NewService wires a list service. cache and observer may be nil.
func NewService[T any](resource string, schema Schema[T], source Source[T], cache *Cache, observer CacheObserver, defaultPageSize int) *Service[T] {
	return &Service[T]{
		resource: resource,
		schema:   schema,
		codec:    schema.Codec(defaultPageSize),
		source:   source,
		cache:    cache,
		observer: observer,
	}
}

// Resource names the list served.
func (s *Service[T]) Resource() string {
	return s.resource
}

// Codec exposes the parameter codec of the list.
func (s *Service[T]) Codec() Codec {
	return s.codec
}

// List returns the page of records described by q.
func (s *Service[T]) List(ctx context.Context, q Query) (Page[T], error) {
	canonical := s.codec.Encode(q).Encode()
	key, err := s.cache.BuildKey(ctx, s.resource, "page", canonical)
	if err != nil {
		return Page[T]{}, fmt.Errorf("listing: %s cache key: %w", s.resource, err)
	}

	result, err, _ := s.do(ctx, key, func(ctx context.Context) (any, error) {
		var page Page[T]
		hit, err := s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (any, error) {
			return s.compute(ctx, q)
		})
		if err != nil {
			return nil, err
		}
		if s.observer != nil {
			s.observer.ObserveListCache(s.resource, hit)
		}
		return page, nil
	})
	if err != nil {
		return Page[T]{}, err
	}
	page, ok := result.(Page[T])
	if !ok {
		return Page[T]{}, errors.New("listing: unexpected page type")
	}
	if page.Data == nil {
		page.Data = make([]T, 0)
	}
	return page, nil
}

// Invalidate drops every cached page of the resource.
func (s *Service[T]) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, s.resource)
}

func (s *Service[T]) compute(ctx context.Context, q Query) (Page[T], error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return Page[T]{}, fmt.Errorf("listing: load %s: %w", s.resource, err)
	}
	return s.schema.Apply(records, q), nil
}

func (s *Service[T]) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	// The computation is shared, so one caller going away must not fail
	// the others. Each caller still stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	resultChan := s.group.DoChan(key, func() (any, error) {
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
