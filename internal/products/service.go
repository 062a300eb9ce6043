package products

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

const idAttempts = 5

// Service exposes list queries and mutations over the product dataset.
type Service struct {
	logger    *slog.Logger
	dataset   *catalog.Dataset[Product]
	list      *listing.Service[Product]
	validator *httpx.Validator
	newID     func() string
}

// NewDataset creates the product dataset over loader.
func NewDataset(loader catalog.Loader[Product]) *catalog.Dataset[Product] {
	return catalog.NewDataset(Resource, productKey, loader)
}

// NewService wires the product service. Every change to the dataset
// invalidates the cached list pages.
func NewService(logger *slog.Logger, dataset *catalog.Dataset[Product], cache *listing.Cache, observer listing.CacheObserver, defaultPageSize int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		logger:    logger,
		dataset:   dataset,
		list:      listing.NewService(Resource, Schema(), dataset, cache, observer, defaultPageSize),
		validator: newValidator(),
		newID:     randomID,
	}
	dataset.OnChange(func(ctx context.Context, _ string) {
		if err := s.list.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate product list cache", slog.Any("error", err))
		}
	})
	return s
}

// randomID mimics the 12 digit identifiers of the seeded catalog.
func randomID() string {
	return "613" + fmt.Sprintf("%09d", rand.IntN(1_000_000_000))
}

// Lists returns the list service behind GET /api/products.
func (s *Service) Lists() *listing.Service[Product] {
	return s.list
}

// List runs a list query.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Product], error) {
	return s.list.List(ctx, q)
}

// Get returns one product.
func (s *Service) Get(_ context.Context, id string) (Product, error) {
	return s.dataset.Get(id)
}

// Create validates form and adds a product at the head of the catalog.
func (s *Service) Create(ctx context.Context, form Form) (Product, error) {
	if err := s.validator.Struct(form); err != nil {
		return Product{}, err
	}
	for range idAttempts {
		p := form.apply(Product{ID: s.newID()})
		err := s.dataset.Append(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, catalog.ErrDuplicate) {
			return Product{}, err
		}
	}
	return Product{}, fmt.Errorf("products: could not allocate id after %d attempts", idAttempts)
}

// Update replaces the editable fields of product id.
func (s *Service) Update(ctx context.Context, id string, form Form) (Product, error) {
	if err := s.validator.Struct(form); err != nil {
		return Product{}, err
	}
	current, err := s.dataset.Get(id)
	if err != nil {
		return Product{}, err
	}
	updated := form.apply(current)
	if err := s.dataset.Put(ctx, updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// Delete removes product id.
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

// BulkDelete removes every listed product and reports how many existed.
func (s *Service) BulkDelete(ctx context.Context, req BulkDeleteRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	return s.dataset.Delete(ctx, req.IDs...)
}

// BulkCategory moves the listed products into req.Category. Unknown IDs are
// skipped.
func (s *Service) BulkCategory(ctx context.Context, req BulkCategoryRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	return s.dataset.Modify(ctx, req.IDs, func(p Product) Product {
		p.Category = req.Category
		return p
	})
}

// Select returns the products with the given IDs in catalog order, or the
// whole catalog when ids is empty.
func (s *Service) Select(ctx context.Context, ids []string) ([]Product, error) {
	records, err := s.dataset.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return records, nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]Product, 0, len(ids))
	for _, p := range records {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
