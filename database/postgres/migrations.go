package postgres

import (
	"context"
	"fmt"

	"github.com/apollo-music/songvault"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the songs table and its indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables songvault.Tables) error {
	if err := createSongsTable(ctx, pool, tables.Songs); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Songs, err)
	}
	return nil
}

// DropTables removes every table Migrate creates.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables songvault.Tables) error {
	quotedTable := pgx.Identifier{tables.Songs}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Songs, err)
	}
	return nil
}

func createSongsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexListOrder := pgx.Identifier{fmt.Sprintf("idx_%s_list_order", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY CHECK (id ~ '^[0-9a-f]{24}$'),
			name TEXT NOT NULL,
			artist TEXT NOT NULL,
			year INTEGER NOT NULL,
			file_location TEXT NOT NULL,
			content_type TEXT NOT NULL,
			file_size_bytes BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at, id);
	`,
		quotedTable,
		indexListOrder, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create songs table: %w", err)
	}
	return nil
}
