package listing

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Schema binds a record type to the fields a list query may reference.
// Filters and sorts on fields missing from the schema are no-ops.
type Schema[T any] struct {
	// Columns is the parameter vocabulary of the list endpoint.
	Columns []Column
	// Match extracts the value compared by multi-select filters, keyed by column ID.
	Match map[string]func(T) string
	// Search lists the fields scanned by search filters.
	Search []func(T) string
	// Compare orders two records by a field, keyed by sort field.
	Compare map[string]func(a, b T) int
}

// Codec returns the parameter codec for the schema's columns.
func (s Schema[T]) Codec(defaultPageSize int) Codec {
	return NewCodec(defaultPageSize, s.Columns...)
}

// Apply runs filter, search, sort and paginate, in that order, over records.
// records is never modified.
func (s Schema[T]) Apply(records []T, q Query) Page[T] {
	matched := s.filterFields(records, q)
	matched = s.search(matched, q)
	s.sort(matched, q.Sort)
	return Paginate(matched, q.Page, q.PageSize)
}

func (s Schema[T]) column(id string) (Column, bool) {
	for _, col := range s.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

type fieldMatcher[T any] struct {
	value func(T) string
	set   map[string]struct{}
}

func (s Schema[T]) filterFields(records []T, q Query) []T {
	var matchers []fieldMatcher[T]
	for _, f := range q.Filters {
		col, ok := s.column(f.Field)
		if !ok || col.Mode != MultiSelect {
			continue
		}
		value, ok := s.Match[col.ID]
		if !ok {
			continue
		}
		selected := nonEmpty(f.Values)
		if len(selected) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(selected))
		for _, v := range selected {
			set[v] = struct{}{}
		}
		matchers = append(matchers, fieldMatcher[T]{value: value, set: set})
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		keep := true
		for _, m := range matchers {
			if _, ok := m.set[m.value(rec)]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}

func (s Schema[T]) search(records []T, q Query) []T {
	if len(s.Search) == 0 {
		return records
	}
	fold := cases.Fold()
	var terms []string
	for _, f := range q.Filters {
		col, ok := s.column(f.Field)
		if !ok || col.Mode != Search || f.Term == "" {
			continue
		}
		terms = append(terms, fold.String(f.Term))
	}
	if len(terms) == 0 {
		return records
	}

	out := records[:0:0]
	for _, rec := range records {
		if s.matchesAll(fold, rec, terms) {
			out = append(out, rec)
		}
	}
	return out
}

func (s Schema[T]) matchesAll(fold cases.Caser, rec T, terms []string) bool {
	for _, term := range terms {
		found := false
		for _, field := range s.Search {
			if strings.Contains(fold.String(field(rec)), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s Schema[T]) sort(records []T, order *Sort) {
	if order == nil || order.Field == "" {
		return
	}
	compare, ok := s.Compare[order.Field]
	if !ok {
		return
	}
	if order.Direction == Desc {
		slices.SortStableFunc(records, func(a, b T) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(records, compare)
}

// By builds a three-way comparison on an ordered key.
func By[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}
