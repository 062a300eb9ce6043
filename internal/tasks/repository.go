package tasks

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

//go:embed data/tasks.json
var seedJSON []byte

// SeedJSON returns the bundled task document.
func SeedJSON() []byte {
	return bytes.Clone(seedJSON)
}

// DecodeJSON parses a task document.
func DecodeJSON(raw []byte) ([]Task, error) {
	var out []Task
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("tasks: decode: %w", err)
	}
	return out, nil
}

// EmbeddedLoader serves the bundled tasks.
func EmbeddedLoader() catalog.Loader[Task] {
	return catalog.LoaderFunc[Task](func(context.Context) ([]Task, error) {
		return DecodeJSON(seedJSON)
	})
}

// Repository reads and writes the tasks table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres backed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Load implements catalog.Loader.
func (r *Repository) Load(ctx context.Context) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, status, label, priority FROM tasks ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("tasks: query: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Task])
	if err != nil {
		return nil, fmt.Errorf("tasks: scan: %w", err)
	}
	return out, nil
}

// Replace rewrites the table with records inside tx, keeping their order.
func Replace(ctx context.Context, tx pgx.Tx, records []Task) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("tasks: truncate: %w", err)
	}
	batch := &pgx.Batch{}
	for i, t := range records {
		batch.Queue(`INSERT INTO tasks (id, position, title, status, label, priority) VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ID, i, t.Title, t.Status, t.Label, t.Priority)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("tasks: insert: %w", err)
	}
	return nil
}
