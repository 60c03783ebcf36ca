// Package filesystem provides a local directory object store for songvault.
// It writes atomically using temp files, stores every blob flat under the root
// and detects content types from file extensions.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/apollo-music/songvault"
	"github.com/google/uuid"
)

const tmpPrefix = ".t"

// Store provides file system blob storage.
type Store struct {
	root    *os.Root
	baseURL string
}

// Option configures a Store.
type Option func(*Store)

// WithBaseURL sets the prefix of the locations returned by Put. It defaults to
// "file://" followed by the root directory name.
func WithBaseURL(baseURL string) Option {
	return func(s *Store) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root, opts ...Option) *Store {
	s := &Store{
		root:    root,
		baseURL: "file://" + strings.TrimRight(filepath.ToSlash(root.Name()), "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get opens a blob for reading. Returns songvault.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, name songvault.StorageName) (songvault.Blob, error) {
	if err := ctx.Err(); err != nil {
		return songvault.Blob{}, err
	}

	if isTemp(name) {
		return songvault.Blob{}, songvault.ErrNotFound
	}

	f, err := s.root.Open(string(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return songvault.Blob{}, songvault.ErrNotFound
		}
		return songvault.Blob{}, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "name", name, "err", closeErr)
		}
		if err != nil {
			return songvault.Blob{}, fmt.Errorf("failed to stat file: %w", err)
		}
		return songvault.Blob{}, songvault.ErrNotFound
	}

	return songvault.Blob{
		Body:        f,
		ContentType: songvault.ContentTypeByName(string(name)),
		Size:        info.Size(),
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content under name using a temp file and rename.
// A negative size skips the length check. The content type is not persisted;
// Get derives it from the name's extension.
func (s *Store) Put(ctx context.Context, name songvault.StorageName, content io.Reader, size int64, _ string) (songvault.PutResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return songvault.PutResult{}, ctxErr
	}

	if !songvault.IsValidStorageName(string(name)) || isTemp(name) {
		return songvault.PutResult{}, fmt.Errorf("put %q: %w", name, songvault.ErrInvalidInput)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return songvault.PutResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return songvault.PutResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if size >= 0 && written != size {
		return songvault.PutResult{}, fmt.Errorf("short write: expected %d bytes, got %d", size, written)
	}

	if err := t.Sync(); err != nil {
		return songvault.PutResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := t.Close(); err != nil {
		return songvault.PutResult{}, fmt.Errorf("could not close written file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, string(name)); renameErr != nil {
		return songvault.PutResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true

	return songvault.PutResult{
		Name:     name,
		Location: s.baseURL + "/" + string(name),
		Size:     written,
	}, nil
}

// Delete removes a blob. Returns songvault.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, name songvault.StorageName) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if isTemp(name) {
		return songvault.ErrNotFound
	}

	err := s.root.Remove(string(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return songvault.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// Resolve strips the store's base URL from a location produced by Put.
func (s *Store) Resolve(location string) (songvault.StorageName, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(location, prefix) {
		return "", fmt.Errorf("resolve %q: location does not belong to %s", location, s.baseURL)
	}

	name := strings.TrimPrefix(location, prefix)
	if !songvault.IsValidStorageName(name) {
		return "", fmt.Errorf("resolve %q: invalid storage name %q", location, name)
	}

	return songvault.StorageName(name), nil
}

// List returns every blob directly under the root. Directories and in-flight
// temp files are skipped.
func (s *Store) List(ctx context.Context) ([]songvault.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	objects := make([]songvault.StoredObject, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.IsDir() || strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		objects = append(objects, songvault.StoredObject{
			Name:         songvault.StorageName(entry.Name()),
			Size:         info.Size(),
			ContentType:  songvault.ContentTypeByName(entry.Name()),
			LastModified: info.ModTime(),
		})
	}

	return objects, nil
}

func isTemp(name songvault.StorageName) bool {
	return strings.HasPrefix(string(name), tmpPrefix)
}

func tmpFileName() string {
	return fmt.Sprintf("%s%s", tmpPrefix, uuid.New().String())
}
