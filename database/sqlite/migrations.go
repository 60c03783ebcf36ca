package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/apollo-music/songvault"
)

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// songsDDL returns the statements creating the songs table and the index
// backing its listing order.
func songsDDL(table string) []string {
	quoted := quoteIdentifier(table)

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			artist TEXT NOT NULL,
			year INTEGER NOT NULL,
			file_location TEXT NOT NULL,
			content_type TEXT NOT NULL,
			file_size_bytes INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`, quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id)`,
			quoteIdentifier("idx_"+table+"_list_order"), quoted),
	}
}

// Migrate creates every table songvault needs. It is idempotent and runs in
// a single transaction.
func Migrate(ctx context.Context, db *sql.DB, tables songvault.Tables) error {
	return execTx(ctx, db, songsDDL(tables.Songs))
}

// DropTables removes every table Migrate creates.
func DropTables(ctx context.Context, db *sql.DB, tables songvault.Tables) error {
	return execTx(ctx, db, []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdentifier(tables.Songs)),
	})
}

func execTx(ctx context.Context, db *sql.DB, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}

	return tx.Commit()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
