// Package tasks serves the task tracker list and its mutations.
package tasks

import (
	"github.com/odyssey-erp/admindash/internal/catalog"
	"github.com/odyssey-erp/admindash/internal/listing"
)

// Resource is the dataset and cache name of the task list.
const Resource = "tasks"

// Task is one tracked work item.
type Task struct {
	ID       string `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Status   string `json:"status" db:"status"`
	Label    string `json:"label" db:"label"`
	Priority string `json:"priority" db:"priority"`
}

func taskKey(t Task) string { return t.ID }

var (
	Labels = catalog.Options{
		{Value: "bug", Label: "Bug"},
		{Value: "feature", Label: "Feature"},
		{Value: "documentation", Label: "Documentation"},
	}
	Statuses = catalog.Options{
		{Value: "backlog", Label: "Backlog", Icon: "HelpCircle"},
		{Value: "todo", Label: "Todo", Icon: "Circle"},
		{Value: "in progress", Label: "In Progress", Icon: "Timer"},
		{Value: "done", Label: "Done", Icon: "CheckCircle"},
		{Value: "canceled", Label: "Canceled", Icon: "CircleOff"},
	}
	Priorities = catalog.Options{
		{Value: "low", Label: "Low", Icon: "ArrowDown"},
		{Value: "medium", Label: "Medium", Icon: "ArrowRight"},
		{Value: "high", Label: "High", Icon: "ArrowUp"},
	}
)

// Filters is the faceted filter vocabulary served to clients.
type Filters struct {
	Status   catalog.Options `json:"status"`
	Priority catalog.Options `json:"priority"`
	Label    catalog.Options `json:"label"`
}

// FilterOptions returns the option lists of every faceted filter.
func FilterOptions() Filters {
	return Filters{Status: Statuses, Priority: Priorities, Label: Labels}
}

// Columns are the filterable task columns in toolbar order.
func Columns() []listing.Column {
	return []listing.Column{
		{ID: "status", Mode: listing.MultiSelect},
		{ID: "priority", Mode: listing.MultiSelect},
		{ID: "label", Mode: listing.MultiSelect},
		{ID: "title", Mode: listing.Search, Param: "search"},
	}
}

// Schema describes how task lists are filtered, searched and sorted.
func Schema() listing.Schema[Task] {
	return listing.Schema[Task]{
		Columns: Columns(),
		Match: map[string]func(Task) string{
			"status":   func(t Task) string { return t.Status },
			"priority": func(t Task) string { return t.Priority },
			"label":    func(t Task) string { return t.Label },
		},
		Search: []func(Task) string{
			func(t Task) string { return t.Title },
			func(t Task) string { return t.ID },
		},
		Compare: map[string]func(a, b Task) int{
			"id":       listing.By(func(t Task) string { return t.ID }),
			"title":    listing.By(func(t Task) string { return t.Title }),
			"label":    listing.By(func(t Task) string { return t.Label }),
			"status":   listing.By(func(t Task) string { return t.Status }),
			"priority": listing.By(func(t Task) string { return t.Priority }),
		},
	}
}
