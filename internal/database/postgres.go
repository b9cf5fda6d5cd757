// Package database provides the PostgreSQL-backed statistics repository.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at connect. ON CONFLICT upserts depend on the
// composite primary key.
const schema = `
CREATE TABLE IF NOT EXISTS statistics (
	viewer_id   TEXT   NOT NULL,
	streamer_id TEXT   NOT NULL,
	comments    BIGINT NOT NULL DEFAULT 0,
	experience  BIGINT NOT NULL DEFAULT 0,
	coins       BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (viewer_id, streamer_id)
);

CREATE INDEX IF NOT EXISTS idx_statistics_streamer_experience
	ON statistics (streamer_id, experience DESC);
`

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
