package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/odyssey-erp/admindash/internal/catalog"
	"github.com/odyssey-erp/admindash/internal/listing"
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

const idAttempts = 20

// Service exposes list queries and mutations over the task dataset.
type Service struct {
	logger    *slog.Logger
	dataset   *catalog.Dataset[Task]
	list      *listing.Service[Task]
	validator *httpx.Validator
	newID     func() string
}

// NewDataset creates the task dataset over loader.
func NewDataset(loader catalog.Loader[Task]) *catalog.Dataset[Task] {
	return catalog.NewDataset(Resource, taskKey, loader)
}

// NewService wires the task service. Every change to the dataset
// invalidates the cached list pages.
func NewService(logger *slog.Logger, dataset *catalog.Dataset[Task], cache *listing.Cache, observer listing.CacheObserver, defaultPageSize int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		logger:    logger,
		dataset:   dataset,
		list:      listing.NewService(Resource, Schema(), dataset, cache, observer, defaultPageSize),
		validator: newValidator(),
		newID:     func() string { return fmt.Sprintf("TASK-%04d", 1000+rand.IntN(9000)) },
	}
	dataset.OnChange(func(ctx context.Context, _ string) {
		if err := s.list.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate task list cache", slog.Any("error", err))
		}
	})
	return s
}

// Lists returns the list service behind GET /api/tasks.
func (s *Service) Lists() *listing.Service[Task] {
	return s.list
}

// List runs a list query.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Task], error) {
	return s.list.List(ctx, q)
}

// Get returns one task.
func (s *Service) Get(_ context.Context, id string) (Task, error) {
	return s.dataset.Get(id)
}

// Create validates form and adds a task at the head of the list.
func (s *Service) Create(ctx context.Context, form Form) (Task, error) {
	if err := s.validator.Struct(form); err != nil {
		return Task{}, err
	}
	for range idAttempts {
		t := form.apply(Task{ID: s.newID()})
		err := s.dataset.Append(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, catalog.ErrDuplicate) {
			return Task{}, err
		}
	}
	return Task{}, fmt.Errorf("tasks: could not allocate id after %d attempts", idAttempts)
}

// Update replaces task id.
func (s *Service) Update(ctx context.Context, id string, form Form) (Task, error) {
	if err := s.validator.Struct(form); err != nil {
		return Task{}, err
	}
	current, err := s.dataset.Get(id)
	if err != nil {
		return Task{}, err
	}
	updated := form.apply(current)
	if err := s.dataset.Put(ctx, updated); err != nil {
		return Task{}, err
	}
	return updated, nil
}

// Delete removes task id.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.dataset.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// BulkDelete removes every listed task and reports how many existed.
func (s *Service) BulkDelete(ctx context.Context, req BulkDeleteRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	return s.dataset.Delete(ctx, req.IDs...)
}

// BulkUpdate applies the non-empty fields of req to every listed task.
func (s *Service) BulkUpdate(ctx context.Context, req BulkUpdateRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	if req.empty() {
		return 0, &httpx.ValidationError{Fields: map[string]string{"status": "one of status, priority or label is required"}}
	}
	return s.dataset.Modify(ctx, req.IDs, func(t Task) Task {
		if req.Status != "" {
			t.Status = req.Status
		}
		if req.Priority != "" {
			t.Priority = req.Priority
		}
		if req.Label != "" {
			t.Label = req.Label
		}
		return t
	})
}
