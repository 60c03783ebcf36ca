package songvault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"
)

// SongRepo defines the interface for song metadata persistence.
// Implementations must be safe for concurrent use.
type SongRepo interface {
	// Insert persists a new record. The repository assigns the ID when it is
	// empty and CreatedAt when it is zero, and returns the stored record.
	Insert(ctx context.Context, song Song) (Song, error)

	// FindAll returns every record in the backend's natural order. An empty
	// repository yields an empty slice.
	FindAll(ctx context.Context) ([]Song, error)

	// FindByID returns ErrNotFound when no record has the id.
	FindByID(ctx context.Context, id SongID) (Song, error)

	// DeleteByID returns ErrNotFound when no record has the id.
	DeleteByID(ctx context.Context, id SongID) error
}

// ObjectStore defines the interface for blob storage.
// Implementations can use the local filesystem, S3 compatible servers or any
// other backend, and must be safe for concurrent use.
type ObjectStore interface {
	// Put writes size bytes from r under name, creating the bucket or root if
	// needed. The returned location is what song records carry.
	Put(ctx context.Context, name StorageName, r io.Reader, size int64, contentType string) (PutResult, error)

	// Get opens the blob for reading. Returns ErrNotFound when it is missing.
	// The caller is responsible for closing Blob.Body.
	Get(ctx context.Context, name StorageName) (Blob, error)

	// Delete removes the blob. Returns ErrNotFound when it is missing.
	Delete(ctx context.Context, name StorageName) error

	// Resolve maps a location produced by Put back to its storage name.
	// A location that does not belong to this store is an error.
	Resolve(location string) (StorageName, error)

	// List returns every blob in the store.
	List(ctx context.Context) ([]StoredObject, error)
}

type SongService struct {
	repo           SongRepo
	store          ObjectStore
	compensate     bool
	cleanupTimeout time.Duration
	logger         *slog.Logger
}

// ServiceConfig holds configuration options for SongService.
type ServiceConfig struct {
	// CompensateFailedUploads deletes the freshly written blob when the record
	// insert fails. Off by default, which leaves the blob orphaned.
	CompensateFailedUploads bool
	CleanupTimeout          time.Duration // Timeout for compensating deletes (default: 30s)
	Logger                  *slog.Logger  // default: slog.Default()
}

func NewSongService(repo SongRepo, store ObjectStore, cfg ServiceConfig) (*SongService, error) {
	if repo == nil {
		return nil, errors.New("new song service: repo cannot be nil")
	}
	if store == nil {
		return nil, errors.New("new song service: object store cannot be nil")
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SongService{
		repo:           repo,
		store:          store,
		compensate:     cfg.CompensateFailedUploads,
		cleanupTimeout: cleanupTimeout,
		logger:         logger,
	}, nil
}

// Create stores the uploaded file and then inserts the song record pointing at it.
//
// The method performs the following steps:
//  1. Validates name and artist (non-empty after trimming) and a non-empty file
//  2. Derives a unique storage name from the uploaded filename
//  3. Writes the blob to the object store
//  4. Inserts the record carrying the blob's location
//
// Nothing is written when validation fails. A failed blob write leaves no record.
// A failed insert leaves the blob orphaned unless CompensateFailedUploads is set,
// in which case the blob is deleted with a background context bounded by the
// cleanup timeout.
//
// Error types returned:
//   - ErrInvalidInput: missing name, artist or file content
//   - ErrStorage: object store or metadata store failure
//   - context.Canceled or context.DeadlineExceeded
func (s *SongService) Create(ctx context.Context, meta NewSong, up Upload) (Song, error) {
	if err := ctx.Err(); err != nil {
		return Song{}, fmt.Errorf("create song: %w", err)
	}

	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return Song{}, fmt.Errorf("create song: %w", err)
	}

	if up.Content == nil || up.Size <= 0 {
		return Song{}, fmt.Errorf("create song: %w: file cannot be empty", ErrInvalidInput)
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	name := NewStorageName(up.Filename)

	put, putErr := s.store.Put(ctx, name, up.Content, up.Size, contentType)
	if putErr != nil {
		return Song{}, fmt.Errorf("create song: upload %s: %w", name, storageErr(putErr))
	}

	song, insertErr := s.repo.Insert(ctx, Song{
		Name:          meta.Name,
		Artist:        meta.Artist,
		Year:          meta.Year,
		FileLocation:  put.Location,
		ContentType:   contentType,
		FileSizeBytes: put.Size,
	})
	if insertErr == nil {
		return song, nil
	}

	insertErr = storageErr(insertErr)

	if !s.compensate {
		s.logger.Error("song record insert failed, blob left orphaned",
			"storage_name", name, "location", put.Location, "error", insertErr)
		return Song{}, fmt.Errorf("create song %s: insert record: %w", name, insertErr)
	}

	// Use background context for cleanup since original context may be cancelled
	cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	if delErr := s.store.Delete(cleanupCtx, name); delErr != nil {
		s.logger.Error("compensating blob delete failed, blob left orphaned",
			"storage_name", name, "error", delErr)
		return Song{}, fmt.Errorf("create song %s: insert record failed (%w) and cleanup failed: %w", name, insertErr, delErr)
	}

	return Song{}, fmt.Errorf("create song %s: insert record: %w", name, insertErr)
}

// List returns every song record. It never returns a nil slice on success.
func (s *SongService) List(ctx context.Context) ([]Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}

	songs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", storageErr(err))
	}

	if songs == nil {
		songs = []Song{}
	}

	return songs, nil
}

// Get returns the record for rawID. A malformed id fails with ErrInvalidInput
// without reaching the repository.
func (s *SongService) Get(ctx context.Context, rawID string) (Song, error) {
	if err := ctx.Err(); err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}

	id, err := ParseSongID(rawID)
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}

	song, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Song{}, fmt.Errorf("get song %s: %w", id, storageErr(err))
	}

	return song, nil
}

// Delete removes the song's blob and then its record.
//
// If the blob delete fails the record is kept and ErrStorage is returned. A blob
// that is already gone does not stop the record from being removed.
func (s *SongService) Delete(ctx context.Context, rawID string) error {
	song, err := s.Get(ctx, rawID)
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}

	name, err := s.store.Resolve(song.FileLocation)
	if err != nil {
		return fmt.Errorf("delete song %s: resolve %q: %w", song.ID, song.FileLocation, storageErr(err))
	}

	// Ignore ErrNotFound - blob may have been deleted already
	if delErr := s.store.Delete(ctx, name); delErr != nil && !errors.Is(delErr, ErrNotFound) {
		return fmt.Errorf("delete song %s: delete blob %s: %w", song.ID, name, storageErr(delErr))
	}

	if err := s.repo.DeleteByID(ctx, song.ID); err != nil {
		return fmt.Errorf("delete song %s: %w", song.ID, storageErr(err))
	}

	return nil
}

// Download opens the blob stored under name. The storage name is the object
// store key, not a song id. The caller must close Blob.Body.
func (s *SongService) Download(ctx context.Context, name StorageName) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, fmt.Errorf("download %s: %w", name, err)
	}

	if !IsValidStorageName(string(name)) {
		return Blob{}, fmt.Errorf("download %q: %w", name, ErrInvalidInput)
	}

	blob, err := s.store.Get(ctx, name)
	if err != nil {
		return Blob{}, fmt.Errorf("download %s: %w", name, storageErr(err))
	}

	return blob, nil
}

// Sweep reconciles the object store with the song records.
//
// Blobs that no record references are reported as orphans, and with
// opts.Delete set they are removed (already missing blobs are ignored).
// Records whose blob is missing, or whose location cannot be resolved, are
// reported as dangling and never modified.
//
// A location that does not resolve usually means the store's base URL
// changed, so the blob it names is not reported as an orphan when its last
// path segment matches, and a deleting Sweep fails with
// ErrUnresolvedLocation before removing anything.
//
// Returns the partial result alongside the first error encountered.
func (s *SongService) Sweep(ctx context.Context, opts SweepOptions) (SweepResult, error) {
	result := SweepResult{Orphans: []StoredObject{}, Dangling: []Song{}}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("sweep: %w", err)
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("sweep: list blobs: %w", storageErr(err))
	}

	songs, err := s.repo.FindAll(ctx)
	if err != nil {
		return result, fmt.Errorf("sweep: list songs: %w", storageErr(err))
	}

	stored := make(map[StorageName]struct{}, len(objects))
	for _, obj := range objects {
		stored[obj.Name] = struct{}{}
	}

	unresolved := 0
	referenced := make(map[StorageName]struct{}, len(songs))
	for _, song := range songs {
		name, resolveErr := s.store.Resolve(song.FileLocation)
		if resolveErr != nil {
			unresolved++
			referenced[StorageName(path.Base(song.FileLocation))] = struct{}{}
			result.Dangling = append(result.Dangling, song)
			continue
		}
		referenced[name] = struct{}{}
		if _, ok := stored[name]; !ok {
			result.Dangling = append(result.Dangling, song)
		}
	}

	cutoff := time.Now().Add(-opts.MinAge)
	for _, obj := range objects {
		if _, ok := referenced[obj.Name]; ok {
			continue
		}
		if opts.MinAge > 0 && obj.LastModified.After(cutoff) {
			continue
		}
		result.Orphans = append(result.Orphans, obj)
	}

	if !opts.Delete {
		return result, nil
	}

	if unresolved > 0 {
		return result, fmt.Errorf("sweep: %d song location(s) outside this store, nothing deleted: %w", unresolved, ErrUnresolvedLocation)
	}

	for _, obj := range result.Orphans {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sweep: %w", err)
		}

		delErr := s.store.Delete(ctx, obj.Name)
		if delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return result, fmt.Errorf("sweep '%s': %w", obj.Name, storageErr(delErr))
		}
		result.Deleted++
	}

	return result, nil
}
