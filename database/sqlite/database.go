package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/apollo-music/songvault"

	_ "modernc.org/sqlite" // SQLite driver
)

// busyTimeoutPragma lets the server and one-shot commands such as import and
// sweep share a database file without failing on SQLITE_BUSY.
const busyTimeoutPragma = "_pragma=busy_timeout(5000)"

// database is the SQLite songvault database.
type database struct {
	db     *sql.DB
	tables songvault.Tables
}

// Connect opens a SQLite database. Tables should be validated before calling
// Connect. No connection is made until first use.
func Connect(_ context.Context, dsn string, tables songvault.Tables) (*database, error) {
	memory := strings.Contains(dsn, ":memory:")

	if !memory && !strings.Contains(dsn, "busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + busyTimeoutPragma
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// every connection to an in-memory database sees its own empty database
	if memory {
		db.SetMaxOpenConns(1)
	}

	return &database{db: db, tables: tables}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the songs table and its index when missing.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns a SongRepo sharing this database's connection pool.
func (d *database) GetRepo() songvault.SongRepo {
	return &repo{db: d.db, tableName: d.tables.Songs}
}

func (d *database) Close() error {
	return d.db.Close()
}
