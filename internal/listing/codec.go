package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter vocabulary shared by the list endpoints and the address bar.
const (
	ParamPage      = "page"
	ParamPageSize  = "pageSize"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 25
)

// FilterMode declares how a column's filter value matches records.
type FilterMode string

const (
	// MultiSelect matches when the field equals any of the selected values.
	MultiSelect FilterMode = "multi-select"
	// Search matches a case-insensitive substring across the searchable fields.
	Search FilterMode = "search"
)

// Column declares a filterable field and the parameter it travels under.
type Column struct {
	ID    string
	Mode  FilterMode
	Param string
}

// ParamName is the query parameter for the column, defaulting to its ID.
func (c Column) ParamName() string {
	if c.Param != "" {
		return c.Param
	}
	return c.ID
}

// Codec maps a Query to flat string parameters and back. Decoding never
// fails: malformed numbers fall back to defaults and unknown parameters are
// ignored.
type Codec struct {
	Columns         []Column
	DefaultPageSize int
}

// NewCodec builds a codec for the given filterable columns.
func NewCodec(defaultPageSize int, columns ...Column) Codec {
	return Codec{Columns: columns, DefaultPageSize: defaultPageSize}
}

func (c Codec) pageSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}
	return DefaultPageSize
}

// Column looks up a declared column by ID.
func (c Codec) Column(id string) (Column, bool) {
	for _, col := range c.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

// SearchColumn returns the first column in search mode.
func (c Codec) SearchColumn() (Column, bool) {
	for _, col := range c.Columns {
		if col.Mode == Search {
			return col, true
		}
	}
	return Column{}, false
}

// Encode serialises q. Empty filters and filters on undeclared columns are
// left out entirely.
func (c Codec) Encode(q Query) url.Values {
	values := url.Values{}
	page := q.Page
	if page < 1 {
		page = DefaultPage
	}
	size := q.PageSize
	if size < 1 {
		size = c.pageSize()
	}
	values.Set(ParamPage, strconv.Itoa(page))
	values.Set(ParamPageSize, strconv.Itoa(size))

	for _, f := range q.Filters {
		col, ok := c.Column(f.Field)
		if !ok {
			continue
		}
		switch col.Mode {
		case MultiSelect:
			selected := nonEmpty(f.Values)
			if len(selected) == 0 {
				continue
			}
			values.Set(col.ParamName(), strings.Join(selected, ","))
		case Search:
			if f.Term == "" {
				continue
			}
			values.Set(col.ParamName(), f.Term)
		}
	}

	if q.Sort != nil && q.Sort.Field != "" {
		values.Set(ParamSortBy, q.Sort.Field)
		order := Asc
		if q.Sort.Direction == Desc {
			order = Desc
		}
		values.Set(ParamSortOrder, string(order))
	}
	return values
}

// Decode rebuilds a Query from parameters. Filters come back in column
// declaration order.
func (c Codec) Decode(values url.Values) Query {
	q := Query{
		Page:     positiveInt(values.Get(ParamPage), DefaultPage),
		PageSize: positiveInt(values.Get(ParamPageSize), c.pageSize()),
	}

	for _, col := range c.Columns {
		raw := values.Get(col.ParamName())
		if raw == "" {
			continue
		}
		switch col.Mode {
		case MultiSelect:
			selected := nonEmpty(strings.Split(raw, ","))
			if len(selected) == 0 {
				continue
			}
			q.Filters = append(q.Filters, Filter{Field: col.ID, Values: selected})
		case Search:
			q.Filters = append(q.Filters, Filter{Field: col.ID, Term: raw})
		}
	}

	if sortBy := values.Get(ParamSortBy); sortBy != "" {
		dir := Asc
		if values.Get(ParamSortOrder) == string(Desc) {
			dir = Desc
		}
		q.Sort = &Sort{Field: sortBy, Direction: dir}
	}
	return q
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
