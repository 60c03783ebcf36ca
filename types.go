package songvault

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultContentType is recorded when an upload does not declare one.
const DefaultContentType = "application/octet-stream"

// SongID identifies a song record. It is always a 24 character lowercase hex
// string, regardless of the metadata backend.
type SongID string

// NewSongID returns a fresh, time ordered identifier.
func NewSongID() SongID {
	return SongID(primitive.NewObjectID().Hex())
}

// ParseSongID validates s as a song identifier.
func ParseSongID(s string) (SongID, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return "", fmt.Errorf("parse song id %q: %w", s, ErrInvalidInput)
	}
	return SongID(oid.Hex()), nil
}

func (id SongID) String() string {
	return string(id)
}

// Song is the persisted metadata record of an uploaded song.
type Song struct {
	ID            SongID    `json:"id"`
	Name          string    `json:"name"`
	Artist        string    `json:"artist"`
	Year          int       `json:"year"`
	FileLocation  string    `json:"fileUrl"`
	ContentType   string    `json:"contentType"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewSong is the caller supplied metadata for a song being created.
type NewSong struct {
	Name   string `validate:"required"`
	Artist string `validate:"required"`
	Year   int
}

var songValidator = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims surrounding whitespace from the text fields.
func (n NewSong) Normalize() NewSong {
	n.Name = strings.TrimSpace(n.Name)
	n.Artist = strings.TrimSpace(n.Artist)
	return n
}

// Validate reports missing required fields as ErrInvalidInput.
func (n NewSong) Validate() error {
	err := songValidator.Struct(n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate song: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+" cannot be empty")
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
}

// Upload is the file half of a song creation.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Blob is an open stream over a stored file. The caller must close Body.
type Blob struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// PutResult describes a blob that was written to an object store.
type PutResult struct {
	Name     StorageName
	Location string
	Size     int64
}

// StoredObject is one entry of an object store listing.
type StoredObject struct {
	Name         StorageName `json:"name"`
	Size         int64       `json:"size"`
	ContentType  string      `json:"contentType"`
	LastModified time.Time   `json:"lastModified"`
}

// SweepOptions controls the orphan reconciliation pass.
type SweepOptions struct {
	// Delete removes orphaned blobs instead of only reporting them.
	Delete bool
	// MinAge skips blobs modified more recently than this, so uploads still
	// waiting for their record insert are not mistaken for orphans.
	MinAge time.Duration
}

// SweepResult lists inconsistencies found between the two stores.
type SweepResult struct {
	// Orphans are blobs no record points at.
	Orphans []StoredObject `json:"orphans"`
	// Dangling are records whose blob is missing or whose location does not
	// belong to the object store.
	Dangling []Song `json:"dangling"`
	// Deleted counts orphans removed when SweepOptions.Delete is set.
	Deleted int `json:"deleted"`
}

// Tables holds configurable table names for metadata storage.
// For MongoDB the songs name is used as the collection name.
type Tables struct {
	Songs string `mapstructure:"songs"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Songs == "" {
		return errors.New("validate tables: songs table name cannot be empty")
	}

	if !IsValidTableName(t.Songs) {
		return fmt.Errorf("validate tables: invalid songs table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Songs)
	}

	return nil
}
