package products

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/admindash/internal/catalog"
)

//go:embed data/products.json
var seedJSON []byte

// SeedJSON returns the bundled catalog document.
func SeedJSON() []byte {
	return bytes.Clone(seedJSON)
}

// DecodeJSON parses a catalog document.
func DecodeJSON(raw []byte) ([]Product, error) {
	var out []Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("products: decode: %w", err)
	}
	return out, nil
}

// EmbeddedLoader serves the bundled catalog.
func EmbeddedLoader() catalog.Loader[Product] {
	return catalog.LoaderFunc[Product](func(context.Context) ([]Product, error) {
		return DecodeJSON(seedJSON)
	})
}

const selectProducts = `SELECT id, name, description, category, availability, price_range, price, stock, image_url
FROM products ORDER BY position, id`

// Repository reads and writes the products table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres backed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Load implements catalog.Loader.
func (r *Repository) Load(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts)
	if err != nil {
		return nil, fmt.Errorf("products: query: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("products: scan: %w", err)
	}
	return out, nil
}

// Replace rewrites the table with records inside tx, keeping their order.
func Replace(ctx context.Context, tx pgx.Tx, records []Product) error {
	if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("products: truncate: %w", err)
	}
	rows := make([][]any, len(records))
	for i, p := range records {
		rows[i] = []any{p.ID, i, p.Name, p.Description, p.Category, p.Availability, p.PriceRange, p.Price, p.Stock, p.ImageURL}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "position", "name", "description", "category", "availability", "price_range", "price", "stock", "image_url"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("products: copy: %w", err)
	}
	return nil
}
