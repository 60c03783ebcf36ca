// Package sqlite implements songvault.SongRepo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apollo-music/songvault"
)

// timeFormat is fixed width so that text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const songColumns = `id, name, artist, year, file_location, content_type, file_size_bytes, created_at`

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns a SongRepo over an already migrated database.
func NewRepo(db *sql.DB, tables songvault.Tables) (songvault.SongRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &repo{db: db, tableName: tables.Songs}, nil
}

func (r *repo) Insert(ctx context.Context, song songvault.Song) (songvault.Song, error) {
	if song.ID == "" {
		song.ID = songvault.NewSongID()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}
	song.CreatedAt = song.CreatedAt.UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName), songColumns)

	_, err := r.db.ExecContext(ctx, query,
		string(song.ID), song.Name, song.Artist, song.Year, song.FileLocation,
		song.ContentType, song.FileSizeBytes, song.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return songvault.Song{}, fmt.Errorf("insert: %w", err)
	}

	return song, nil
}

func (r *repo) FindAll(ctx context.Context) ([]songvault.Song, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s ORDER BY created_at, id`, songColumns, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	defer func() { _ = rows.Close() }()

	songs := []songvault.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("find all: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}

	return songs, nil
}

func (r *repo) FindByID(ctx context.Context, id songvault.SongID) (songvault.Song, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE id = ?`, songColumns, quoteIdentifier(r.tableName))

	song, err := scanSong(r.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return songvault.Song{}, songvault.ErrNotFound
		}
		return songvault.Song{}, fmt.Errorf("find by id: %w", err)
	}

	return song, nil
}

func (r *repo) DeleteByID(ctx context.Context, id songvault.SongID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, string(id))
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete by id: %w", songvault.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (songvault.Song, error) {
	var s songvault.Song
	var id, createdAt string

	err := row.Scan(&id, &s.Name, &s.Artist, &s.Year, &s.FileLocation, &s.ContentType, &s.FileSizeBytes, &createdAt)
	if err != nil {
		return songvault.Song{}, err
	}

	s.ID = songvault.SongID(id)
	s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return songvault.Song{}, fmt.Errorf("parse created_at: %w", err)
	}

	return s, nil
}
