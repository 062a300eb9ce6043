package jobs

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatasetReload asks the API servers to reload a catalog dataset.
	TaskDatasetReload = "dataset:reload"
	// TaskListingWarm walks the first pages of a list endpoint to fill the page cache.
	TaskListingWarm = "listing:warm"
)

// Resources that expose a list endpoint.
var Resources = []string{"products", "tasks"}

// DatasetReloadPayload names the dataset to reload. Empty means all of them.
type DatasetReloadPayload struct {
	Dataset string `json:"dataset"`
}

// NewDatasetReloadTask constructs an Asynq task.
func NewDatasetReloadTask(dataset string) (*asynq.Task, error) {
	data, err := json.Marshal(DatasetReloadPayload{Dataset: dataset})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatasetReload, data), nil
}

// ListingWarmPayload describes which list pages to request.
type ListingWarmPayload struct {
	Resource string `json:"resource"`
	Pages    int    `json:"pages"`
	PageSize int    `json:"page_size"`
}

// NewListingWarmTask constructs an Asynq task.
func NewListingWarmTask(resource string, pages, pageSize int) (*asynq.Task, error) {
	if !slices.Contains(Resources, resource) {
		return nil, fmt.Errorf("jobs: unknown resource %q", resource)
	}
	data, err := json.Marshal(ListingWarmPayload{Resource: resource, Pages: pages, PageSize: pageSize})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskListingWarm, data), nil
}
