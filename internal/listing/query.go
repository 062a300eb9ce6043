// Package listing implements the filter, search, sort and paginate pipeline
// behind every list endpoint, together with the codec that maps list state to
// URL query parameters and back.
package listing

import "slices"

// Direction is the sort order of a list query.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter narrows a list on one field. Multi-select filters carry Values,
// search filters carry Term.
type Filter struct {
	Field  string
	Values []string
	Term   string
}

// Empty reports whether the filter has nothing to match on.
func (f Filter) Empty() bool {
	if f.Term != "" {
		return false
	}
	for _, v := range f.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// Sort orders a list by a single field.
type Sort struct {
	Field     string
	Direction Direction
}

// Query is one view of a list. Values are treated as immutable: the With*
// helpers return a fresh copy and never touch the receiver.
type Query struct {
	Page     int
	PageSize int
	Filters  []Filter
	Sort     *Sort
}

// NewQuery returns the first page of an unfiltered list.
func NewQuery(pageSize int) Query {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return Query{Page: DefaultPage, PageSize: pageSize}
}

// Filter returns the active filter for field.
func (q Query) Filter(field string) (Filter, bool) {
	for _, f := range q.Filters {
		if f.Field == field {
			return f, true
		}
	}
	return Filter{}, false
}

// Clone deep-copies the query.
func (q Query) Clone() Query {
	out := Query{Page: q.Page, PageSize: q.PageSize}
	if len(q.Filters) > 0 {
		out.Filters = make([]Filter, len(q.Filters))
		for i, f := range q.Filters {
			out.Filters[i] = Filter{Field: f.Field, Values: slices.Clone(f.Values), Term: f.Term}
		}
	}
	if q.Sort != nil {
		s := *q.Sort
		out.Sort = &s
	}
	return out
}

// WithPage moves to another page.
func (q Query) WithPage(page int) Query {
	out := q.Clone()
	if page < 1 {
		page = DefaultPage
	}
	out.Page = page
	return out
}

// WithPageSize changes the page size and keeps the current page.
func (q Query) WithPageSize(size int) Query {
	out := q.Clone()
	if size < 1 {
		size = DefaultPageSize
	}
	out.PageSize = size
	return out
}

// WithFilter replaces the filter on f.Field, removing it when f is empty.
// The page goes back to 1 since page N of a different filter set is a
// different slice of records.
func (q Query) WithFilter(f Filter) Query {
	out := q.Clone()
	out.Page = DefaultPage
	idx := slices.IndexFunc(out.Filters, func(existing Filter) bool { return existing.Field == f.Field })
	switch {
	case f.Empty() && idx >= 0:
		out.Filters = slices.Delete(out.Filters, idx, idx+1)
	case f.Empty():
	case idx >= 0:
		out.Filters[idx] = Filter{Field: f.Field, Values: slices.Clone(f.Values), Term: f.Term}
	default:
		out.Filters = append(out.Filters, Filter{Field: f.Field, Values: slices.Clone(f.Values), Term: f.Term})
	}
	return out
}

// WithFilters swaps the whole filter set and resets the page.
func (q Query) WithFilters(filters []Filter) Query {
	out := q.Clone()
	out.Page = DefaultPage
	out.Filters = nil
	for _, f := range filters {
		out = out.WithFilter(f)
	}
	return out
}

// WithSort changes the ordering. A nil sort clears it.
func (q Query) WithSort(s *Sort) Query {
	out := q.Clone()
	if s == nil || s.Field == "" {
		out.Sort = nil
		return out
	}
	dir := s.Direction
	if dir != Desc {
		dir = Asc
	}
	out.Sort = &Sort{Field: s.Field, Direction: dir}
	return out
}
