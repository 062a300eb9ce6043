package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the catalog tables. position keeps the seed order, which is
// the order lists show before any sort is applied.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL,
	availability TEXT NOT NULL,
	price_range  TEXT NOT NULL,
	price        DOUBLE PRECISION NOT NULL CHECK (price > 0),
	stock        INTEGER NOT NULL DEFAULT 0,
	image_url    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
	id       TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	title    TEXT NOT NULL,
	status   TEXT NOT NULL,
	label    TEXT NOT NULL,
	priority TEXT NOT NULL
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("platform/db: migrate: %w", err)
	}
	return nil
}
