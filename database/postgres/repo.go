// Package postgres implements songvault.SongRepo using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apollo-music/songvault"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const songColumns = `id, name, artist, year, file_location, content_type, file_size_bytes, created_at`

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables songvault.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Songs}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) Insert(ctx context.Context, song songvault.Song) (songvault.Song, error) {
	if song.ID == "" {
		song.ID = songvault.NewSongID()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}
	// TIMESTAMPTZ keeps microseconds
	song.CreatedAt = song.CreatedAt.UTC().Truncate(time.Microsecond)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.table(), songColumns)

	_, err := r.pool.Exec(ctx, query,
		string(song.ID), song.Name, song.Artist, song.Year, song.FileLocation,
		song.ContentType, song.FileSizeBytes, song.CreatedAt,
	)
	if err != nil {
		return songvault.Song{}, fmt.Errorf("insert: %w", err)
	}

	return song, nil
}

func (r *Repo) FindAll(ctx context.Context) ([]songvault.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at, id
	`, songColumns, r.table())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}

	songs, err := pgx.CollectRows(rows, scanSong)
	if err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}

	if songs == nil {
		songs = []songvault.Song{}
	}

	return songs, nil
}

func (r *Repo) FindByID(ctx context.Context, id songvault.SongID) (songvault.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, songColumns, r.table())

	rows, err := r.pool.Query(ctx, query, string(id))
	if err != nil {
		return songvault.Song{}, fmt.Errorf("find by id: %w", err)
	}

	song, err := pgx.CollectExactlyOneRow(rows, scanSong)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return songvault.Song{}, songvault.ErrNotFound
		}
		return songvault.Song{}, fmt.Errorf("find by id: %w", err)
	}

	return song, nil
}

func (r *Repo) DeleteByID(ctx context.Context, id songvault.SongID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table())

	result, err := r.pool.Exec(ctx, query, string(id))
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete by id: %w", songvault.ErrNotFound)
	}

	return nil
}

func scanSong(row pgx.CollectableRow) (songvault.Song, error) {
	var s songvault.Song
	var id string

	err := row.Scan(&id, &s.Name, &s.Artist, &s.Year, &s.FileLocation, &s.ContentType, &s.FileSizeBytes, &s.CreatedAt)
	if err != nil {
		return songvault.Song{}, err
	}

	s.ID = songvault.SongID(id)
	s.CreatedAt = s.CreatedAt.UTC()

	return s, nil
}
