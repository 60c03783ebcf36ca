package database

import (
	"context"
	"fmt"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/database/mongodb"
	"github.com/apollo-music/songvault/database/postgres"
	"github.com/apollo-music/songvault/database/sqlite"
)

// Database is a connected metadata backend.
type Database interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Migrate creates the songs table or collection. It is idempotent.
	Migrate(ctx context.Context) error
	// Validate checks the songs table or collection matches what Migrate creates.
	Validate(ctx context.Context) error
	// GetRepo returns the SongRepo backed by this database.
	GetRepo() songvault.SongRepo
	// Close releases the connection.
	Close() error
}

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite", "postgres" or "mongodb"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres mongodb"`
	// DSN is the data source name (connection string or URI)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Name is the database name, used by mongodb only
	Name string `mapstructure:"name" validate:"required_if=Type mongodb"`
	// Tables holds the songs table (or collection) name
	Tables songvault.Tables `mapstructure:"tables"`
}

// Connect opens the configured backend without migrating it.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	case "mongodb":
		return mongodb.Connect(ctx, cfg.DSN, cfg.Name, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, runs migrations, and validates the schema.
// The caller must Close the returned Database.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db, nil
}
