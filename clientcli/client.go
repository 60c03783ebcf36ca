package clientcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apollo-music/songvault"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a songvault server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config:     &Config{Endpoint: strings.TrimSuffix(cfg.Endpoint, "/")},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload sends a local file with its song metadata as a multipart form.
// The file is streamed, never held in memory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", opts.LocalPath)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("upload %s: %w", opts.LocalPath, ErrEmptyFile)
	}

	name := opts.Name
	if name == "" {
		base := filepath.Base(opts.LocalPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = songvault.ContentTypeByName(opts.LocalPath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, file, filepath.Base(opts.LocalPath), contentType, map[string]string{
			"name":   name,
			"artist": opts.Artist,
			"year":   strconv.Itoa(opts.Year),
		}))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/songs/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var song Song
	if err := c.doJSON(req, http.StatusOK, &song); err != nil {
		_ = pr.Close()
		return nil, err
	}

	return &UploadResult{LocalPath: opts.LocalPath, Song: song}, nil
}

// writeUploadForm writes the metadata fields, then the file part, then the
// closing boundary.
func writeUploadForm(mw *multipart.Writer, file io.Reader, fileName, contentType string, fields map[string]string) error {
	for _, key := range []string{"name", "artist", "year"} {
		if err := mw.WriteField(key, fields[key]); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}

	return mw.Close()
}

// List returns every song on the server.
func (c *Client) List(ctx context.Context) ([]Song, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/songs", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	songs := []Song{}
	if err := c.doJSON(req, http.StatusOK, &songs); err != nil {
		return nil, err
	}

	return songs, nil
}

// Get returns one song by id.
func (c *Client) Get(ctx context.Context, id string) (*Song, error) {
	if id == "" {
		return nil, fmt.Errorf("get: %w", ErrNoIDs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/songs/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var song Song
	if err := c.doJSON(req, http.StatusOK, &song); err != nil {
		return nil, err
	}

	return &song, nil
}

// Delete deletes one or more songs from the server.
// Continues on error, collecting results for all ids.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.IDs) == 0 {
		return nil, ErrNoIDs
	}

	results := make([]DeleteResult, 0, len(opts.IDs))

	for _, id := range opts.IDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, id))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, id string) DeleteResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.Endpoint+"/songs/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return DeleteResult{ID: id, Err: fmt.Errorf("create request: %w", err)}
	}

	var msg serverMessage
	if err := c.doJSON(req, http.StatusOK, &msg); err != nil {
		return DeleteResult{ID: id, Err: err}
	}

	return DeleteResult{ID: id, Deleted: true, Message: msg.Message}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Download fetches a stored file by its storage name.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.FileName == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyFileName)
	}

	endpoint := c.config.Endpoint + "/songs/songs/download/" + url.PathEscape(opts.FileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		FileName:    opts.FileName,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(opts.FileName)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Health reports whether the server answers its liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	var status map[string]string
	return c.doJSON(req, http.StatusOK, &status)
}

// doJSON executes req and decodes a JSON body on the expected status.
// Any other status is returned as an *APIError.
func (c *Client) doJSON(req *http.Request, want int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}

// parseServerError extracts the error code and message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var se serverError
	if err := json.Unmarshal(body, &se); err == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}

	return apiErr
}
