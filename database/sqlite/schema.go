package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/apollo-music/songvault"
)

// column is one expected column of the songs table, as reported by PRAGMA table_info.
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
	{"file_size_bytes", "integer", false},
	{"created_at", "text", false},
}

// ValidateSchema checks that the songs table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables songvault.Tables) error {
	table := tables.Songs
	if !songvault.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	var found string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return fmt.Errorf("validate schema %s: query columns: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("validate schema %s: scan column: %w", table, err)
		}
		actual[name] = column{name: name, typ: strings.ToLower(typ), nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	return compareColumns(table, actual)
}

func compareColumns(table string, actual map[string]column) error {
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

	var b strings.Builder
	fmt.Fprintf(&b, "validate schema %s:", table)
	if len(missing) > 0 {
		fmt.Fprintf(&b, " missing columns: %s;", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		fmt.Fprintf(&b, " mismatched columns: %s;", strings.Join(mismatched, "; "))
	}
	return errors.New(strings.TrimSuffix(b.String(), ";"))
}
