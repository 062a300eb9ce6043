// Package navigation describes the dashboard sidebar and derives breadcrumbs
// from page paths.
package navigation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

//go:embed sidebar.yaml
var sidebarYAML []byte

// User is the account shown in the sidebar footer.
type User struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Email  string `yaml:"email" json:"email" validate:"required,email"`
	Avatar string `yaml:"avatar" json:"avatar" validate:"omitempty,url"`
}

// Team is an entry of the team switcher.
type Team struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Logo string `yaml:"logo" json:"logo"`
	Plan string `yaml:"plan" json:"plan"`
}

// Item is either a link (URL set) or a collapsible group of links (Items set).
type Item struct {
	Title string `yaml:"title" json:"title" validate:"required"`
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Badge string `yaml:"badge,omitempty" json:"badge,omitempty"`
	Items []Item `yaml:"items,omitempty" json:"items,omitempty" validate:"dive"`
}

// Collapsible reports whether the item groups other links.
func (i Item) Collapsible() bool { return len(i.Items) > 0 }

// Group is a titled section of the sidebar.
type Group struct {
	Title string `yaml:"title" json:"title" validate:"required"`
	Items []Item `yaml:"items" json:"items" validate:"required,min=1,dive"`
}

// Sidebar is the full sidebar description.
type Sidebar struct {
	User      User    `yaml:"user" json:"user"`
	Teams     []Team  `yaml:"teams" json:"teams" validate:"required,min=1,dive"`
	NavGroups []Group `yaml:"navGroups" json:"navGroups" validate:"required,min=1,dive"`
}

// DefaultSidebar parses the embedded sidebar.
func DefaultSidebar() (Sidebar, error) {
	return ParseSidebar(sidebarYAML)
}

// ParseSidebar decodes and validates a YAML sidebar description.
func ParseSidebar(raw []byte) (Sidebar, error) {
	var sb Sidebar
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&sb); err != nil {
		return Sidebar{}, fmt.Errorf("navigation: decode sidebar: %w", err)
	}
	if err := sb.Validate(); err != nil {
		return Sidebar{}, err
	}
	return sb, nil
}

// Validate checks required fields and that every item is exactly one of a
// link or a collapsible group of links.
func (s Sidebar) Validate() error {
	if err := httpx.NewValidator().Struct(s); err != nil {
		var verr *httpx.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("navigation: invalid sidebar: %v: %w", verr.Fields, err)
		}
		return fmt.Errorf("navigation: invalid sidebar: %w", err)
	}
	var errs []error
	for _, g := range s.NavGroups {
		for _, item := range g.Items {
			errs = append(errs, checkItem(g.Title+" > "+item.Title, item, true))
		}
	}
	return errors.Join(errs...)
}

func checkItem(where string, item Item, nested bool) error {
	switch {
	case item.URL != "" && item.Collapsible():
		return fmt.Errorf("navigation: %s has both url and items", where)
	case item.URL == "" && !item.Collapsible():
		return fmt.Errorf("navigation: %s needs a url or items", where)
	case item.Collapsible() && !nested:
		return fmt.Errorf("navigation: %s nests too deep", where)
	case item.URL != "" && !strings.HasPrefix(item.URL, "/"):
		return fmt.Errorf("navigation: %s url %q is not absolute", where, item.URL)
	}
	var errs []error
	for _, child := range item.Items {
		errs = append(errs, checkItem(where+" > "+child.Title, child, false))
	}
	return errors.Join(errs...)
}

// Links flattens the sidebar into its link items, in display order.
func (s Sidebar) Links() []Item {
	var out []Item
	for _, g := range s.NavGroups {
		for _, item := range g.Items {
			if item.Collapsible() {
				out = append(out, item.Items...)
				continue
			}
			out = append(out, item)
		}
	}
	return out
}

// Active returns the link that best matches path: an exact URL match, or
// else the link with the longest URL that prefixes path.
func (s Sidebar) Active(path string) (Item, bool) {
	path = "/" + strings.Trim(path, "/")
	var best Item
	found := false
	for _, link := range s.Links() {
		if link.URL == path {
			return link, true
		}
		if strings.HasPrefix(path, link.URL+"/") && len(link.URL) > len(best.URL) {
			best, found = link, true
		}
	}
	return best, found
}
