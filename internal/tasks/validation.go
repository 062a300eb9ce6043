package tasks

import (
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// Form is the editable part of a task.
type Form struct {
	Title    string `json:"title" validate:"required,max=200"`
	Status   string `json:"status" validate:"required,task_status"`
	Label    string `json:"label" validate:"required,task_label"`
	Priority string `json:"priority" validate:"required,task_priority"`
}

func (f Form) apply(t Task) Task {
	t.Title = f.Title
	t.Status = f.Status
	t.Label = f.Label
	t.Priority = f.Priority
	return t
}

// BulkDeleteRequest names the tasks to remove.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// BulkUpdateRequest sets status, priority or label on several tasks at once.
// Empty fields are left untouched.
type BulkUpdateRequest struct {
	IDs      []string `json:"ids" validate:"required,min=1,dive,required"`
	Status   string   `json:"status,omitempty" validate:"omitempty,task_status"`
	Priority string   `json:"priority,omitempty" validate:"omitempty,task_priority"`
	Label    string   `json:"label,omitempty" validate:"omitempty,task_label"`
}

func (r BulkUpdateRequest) empty() bool {
	return r.Status == "" && r.Priority == "" && r.Label == ""
}

func newValidator() *httpx.Validator {
	v := httpx.NewValidator()
	for tag, opts := range map[string][]string{
		"task_status":   Statuses.Values(),
		"task_priority": Priorities.Values(),
		"task_label":    Labels.Values(),
	} {
		if err := v.RegisterOptions(tag, opts); err != nil {
			panic(err)
		}
	}
	return v
}
