package postgres

import (
	"context"
	"fmt"

	"github.com/apollo-music/songvault"
	"github.com/jackc/pgx/v5/pgxpool"
)

// database is the PostgreSQL songvault database backed by a pgx pool.
type database struct {
	pool   *pgxpool.Pool
	tables songvault.Tables
}

// Connect parses dsn and creates a pool. Tables should be validated before
// calling Connect. Connections are established lazily; call Ping to check
// reachability.
func Connect(ctx context.Context, dsn string, tables songvault.Tables) (*database, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{pool: pool, tables: tables}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the songs table and its index when missing.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns a SongRepo sharing this database's pool.
func (d *database) GetRepo() songvault.SongRepo {
	return &Repo{pool: d.pool, tableName: d.tables.Songs}
}

// Close closes the pool. It never fails.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
