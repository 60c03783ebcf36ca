package clientcli

import (
	"net/url"
	"path"
	"time"
)

// Song mirrors the song record returned by the server.
type Song struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Artist        string    `json:"artist"`
	Year          int       `json:"year"`
	FileURL       string    `json:"fileUrl"`
	ContentType   string    `json:"contentType,omitempty"`
	FileSizeBytes int64     `json:"fileSizeBytes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FileName returns the storage name of the song's file, the last segment of
// its file URL. It is what Download expects.
func (s Song) FileName() string {
	u, err := url.Parse(s.FileURL)
	if err != nil || u.Path == "" {
		return path.Base(s.FileURL)
	}
	return path.Base(u.Path)
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Name        string // optional, defaults to the file name without extension
	Artist      string
	Year        int
	ContentType string // optional, auto-detect if empty
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Song      Song   `json:"song"`
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	FileName  string
	LocalPath string // empty = use file name, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	FileName    string `json:"file_name"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	IDs []string
}

// DeleteResult represents the result of deleting a single song.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"` // nil on success
}

// serverMessage mirrors the body of a successful delete.
type serverMessage struct {
	Message string `json:"message"`
}

// serverError mirrors the JSON error body written by the server.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
