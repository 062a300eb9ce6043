package listing

// Page is one page of a filtered list plus the counts the table needs to
// render its pager.
type Page[T any] struct {
	Data      []T `json:"data"`
	PageCount int `json:"pageCount"`
	RowCount  int `json:"rowCount"`
}

// Paginate slices records into the requested page. Pages past the end come
// back empty but keep accurate counts.
func Paginate[T any](records []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}
	rowCount := len(records)
	// Sizes come straight from the query string, so nothing here may
	// overflow for values near math.MaxInt.
	pageCount := rowCount / pageSize
	if rowCount%pageSize != 0 {
		pageCount++
	}

	data := make([]T, 0)
	if page-1 < pageCount {
		start := (page - 1) * pageSize
		end := start + min(pageSize, rowCount-start)
		data = append(data, records[start:end]...)
	}
	return Page[T]{Data: data, PageCount: pageCount, RowCount: rowCount}
}
