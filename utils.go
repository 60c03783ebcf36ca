package songvault

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxStorageNameLen = 255

// StorageName is the object store key of a blob. It is a single path segment.
type StorageName string

func (n StorageName) String() string {
	return string(n)
}

// NewStorageName derives a unique storage name from an uploaded filename:
// a random UUID, a dash, and the sanitized base name.
func NewStorageName(filename string) StorageName {
	return StorageName(uuid.NewString() + "-" + SanitizeFilename(filename))
}

// ParseStorageName validates s as a storage name.
func ParseStorageName(s string) (StorageName, error) {
	if !IsValidStorageName(s) {
		return "", fmt.Errorf("parse storage name %q: %w", s, ErrInvalidInput)
	}
	return StorageName(s), nil
}

// IsValidStorageName validates that a string can be used as a blob key.
// It checks that the name:
//   - is not empty, "." or ".."
//   - is a single segment (no "/")
//   - does not contain ".." (path traversal)
//   - does not contain invalid characters: \ ? # ~ %
//   - is valid UTF-8 and at most 255 bytes
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
func IsValidStorageName(s string) bool {
	if s == "" || s == "." || len(s) > maxStorageNameLen {
		return false
	}

	if strings.Contains(s, "/") || strings.Contains(s, "..") {
		return false
	}

	if strings.ContainsAny(s, `\?#~%`) {
		return false
	}

	if !utf8.ValidString(s) {
		return false
	}

	for _, r := range s {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

// SanitizeFilename reduces a client supplied filename to a base name that
// IsValidStorageName accepts once prefixed. Offending characters become '_'.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if !utf8.ValidString(base) {
		base = strings.ToValidUTF8(base, "_")
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r < 0x20, r == 0x7f, unicode.IsSpace(r), strings.ContainsRune(`/\?#~%`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	name := strings.ReplaceAll(b.String(), "..", "_")
	if name == "" || name == "." || name == "_" {
		name = "file"
	}

	// uuid (36) + "-" leaves this much room.
	limit := maxStorageNameLen - 37
	for len(name) > limit {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}

	return name
}

var audioContentTypes = map[string]string{
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".weba": "audio/webm",
}

// ContentTypeByName guesses a content type from a filename extension, preferring
// a fixed table of audio types over the platform mime database.
func ContentTypeByName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}
