package navigation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Label   string `json:"label"`
	Href    string `json:"href"`
	Current bool   `json:"current"`
}

// Breadcrumbs splits path into its segments. Each crumb links to the
// cumulative path up to its segment and the last one is the current page.
func Breadcrumbs(path string) []Crumb {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	crumbs := make([]Crumb, len(segments))
	for i, seg := range segments {
		crumbs[i] = Crumb{
			Label:   label(seg),
			Href:    "/" + strings.Join(segments[:i+1], "/"),
			Current: i == len(segments)-1,
		}
	}
	return crumbs
}

// label upper-cases the first letter and lower-cases the rest.
func label(seg string) string {
	r, size := utf8.DecodeRuneInString(seg)
	return string(unicode.ToUpper(r)) + strings.ToLower(seg[size:])
}
