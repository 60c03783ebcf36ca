package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apollo-music/songvault"
	"github.com/jackc/pgx/v5/pgxpool"
)

// column is one expected column of the songs table, as reported by information_schema.
type column struct {
	name     string
	typ      string
	nullable bool
}

var songColumnsSchema = []column{
	{"id", "text", false},
	{"name", "text", false},
	{"artist", "text", false},
	{"year", "integer", false},
	{"file_location", "text", false},
	{"content_type", "text", false},
	{"file_size_bytes", "bigint", false},
	{"created_at", "timestamp with time zone", false},
}

// ValidateSchema checks that the songs table exists in the public schema with
// the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables songvault.Tables) error {
	table := tables.Songs
	if !songvault.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: query columns: %w", table, err)
	}
	defer rows.Close()

	actual := make(map[string]column)
	for rows.Next() {
		var name, typ, nullable string
		if err := rows.Scan(&name, &typ, &nullable); err != nil {
			return fmt.Errorf("validate schema %s: scan column: %w", table, err)
		}
		actual[name] = column{name: name, typ: strings.ToLower(typ), nullable: nullable == "YES"}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	// information_schema has no rows for a missing table
	if len(actual) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}

	var missing, mismatched []string
	for _, want := range songColumnsSchema {
		got, ok := actual[want.name]
		switch {
		case !ok:
			missing = append(missing, want.name)
		case got.typ != want.typ:
			mismatched = append(mismatched, fmt.Sprintf("%s is %s, want %s", want.name, got.typ, want.typ))
		case got.nullable != want.nullable:
			mismatched = append(mismatched, fmt.Sprintf("%s nullable=%v, want %v", want.name, got.nullable, want.nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	msg := fmt.Sprintf("validate schema %s:", table)
	if len(missing) > 0 {
		msg += " missing columns: " + strings.Join(missing, ", ")
	}
	if len(mismatched) > 0 {
		msg += " mismatched columns: " + strings.Join(mismatched, "; ")
	}
	return errors.New(msg)
}
