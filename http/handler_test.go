package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apollo-music/songvault"
	songhttp "github.com/apollo-music/songvault/http"
	"github.com/apollo-music/songvault/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, meta songvault.NewSong, up songvault.Upload) (songvault.Song, error) {
	args := m.Called(ctx, meta, up)
	return args.Get(0).(songvault.Song), args.Error(1)
}

func (m *MockService) List(ctx context.Context) ([]songvault.Song, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]songvault.Song), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, rawID string) (songvault.Song, error) {
	args := m.Called(ctx, rawID)
	return args.Get(0).(songvault.Song), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, rawID string) error {
	args := m.Called(ctx, rawID)
	return args.Error(0)
}

func (m *MockService) Download(ctx context.Context, name songvault.StorageName) (songvault.Blob, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(songvault.Blob), args.Error(1)
}

const testID = "65f1a2b3c4d5e6f7a8b9c0d1"

func newRouter(service *MockService) http.Handler {
	return songhttp.NewHandler(&songhttp.HandlerConfig{}, service).Router()
}

func sampleSong() songvault.Song {
	return songvault.Song{
		ID:            testID,
		Name:          "Imagine",
		Artist:        "John Lennon",
		Year:          1971,
		FileLocation:  "http://localhost:9000/songs/abc-imagine.mp3",
		ContentType:   "audio/mpeg",
		FileSizeBytes: 3,
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

type formFile struct {
	name    string
	content string
}

func multipartRequest(t *testing.T, fields map[string]string, file *formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/songs/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) songhttp.ErrorResponse {
	t.Helper()
	var resp songhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandler_Upload_Success(t *testing.T) {
	service := new(MockService)

	var uploaded string
	service.On("Create", mock.Anything,
		songvault.NewSong{Name: "Imagine", Artist: "John Lennon", Year: 1971},
		mock.MatchedBy(func(up songvault.Upload) bool {
			return up.Size == 3 && up.Filename == "imagine.mp3"
		}),
	).Run(func(args mock.Arguments) {
		data, err := io.ReadAll(args.Get(2).(songvault.Upload).Content)
		require.NoError(t, err)
		uploaded = string(data)
	}).Return(sampleSong(), nil)

	req := multipartRequest(t, map[string]string{
		"name":   "Imagine",
		"artist": "John Lennon",
		"year":   "1971",
	}, &formFile{name: "imagine.mp3", content: "abc"})
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got songvault.Song
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, sampleSong(), got)
	assert.Equal(t, "abc", uploaded)

	service.AssertExpectations(t)
}

func TestHandler_Upload_JSONFieldNames(t *testing.T) {
	service := new(MockService)
	service.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(sampleSong(), nil)

	req := multipartRequest(t, map[string]string{"name": "Imagine", "artist": "John Lennon", "year": "1971"},
		&formFile{name: "imagine.mp3", content: "abc"})
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	for _, key := range []string{"id", "name", "artist", "year", "fileUrl"} {
		assert.Contains(t, raw, key)
	}
}

func TestHandler_Upload_BadRequest(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   *formFile
		want   string
	}{
		{
			name:   "missing year",
			fields: map[string]string{"name": "Imagine", "artist": "John Lennon"},
			file:   &formFile{name: "a.mp3", content: "abc"},
			want:   "year is required",
		},
		{
			name:   "non integer year",
			fields: map[string]string{"name": "Imagine", "artist": "John Lennon", "year": "nineteen"},
			file:   &formFile{name: "a.mp3", content: "abc"},
			want:   "year must be an integer",
		},
		{
			name:   "missing file",
			fields: map[string]string{"name": "Imagine", "artist": "John Lennon", "year": "1971"},
			want:   "file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)

			rec := httptest.NewRecorder()
			newRouter(service).ServeHTTP(rec, multipartRequest(t, tt.fields, tt.file))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, "invalid_input", resp.Error)
			assert.Contains(t, resp.Message, tt.want)

			service.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Upload_NotMultipart(t *testing.T) {
	service := new(MockService)

	req := httptest.NewRequest(http.MethodPost, "/songs/upload", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertExpectations(t)
}

func TestHandler_Upload_ValidationError(t *testing.T) {
	service := new(MockService)
	service.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(songvault.Song{}, fmt.Errorf("create song: %w: name cannot be empty", songvault.ErrInvalidInput))

	req := multipartRequest(t, map[string]string{"name": " ", "artist": "John Lennon", "year": "1971"},
		&formFile{name: "a.mp3", content: "abc"})
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "name cannot be empty")
}

func TestHandler_Upload_TooLarge(t *testing.T) {
	service := new(MockService)
	router := songhttp.NewHandler(&songhttp.HandlerConfig{MaxUploadBytes: 1024}, service).Router()

	req := multipartRequest(t, map[string]string{"name": "Imagine", "artist": "John Lennon", "year": "1971"},
		&formFile{name: "a.mp3", content: strings.Repeat("x", 4096)})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "payload_too_large", resp.Error)
	assert.Equal(t, "File size exceeds maximum limit!", resp.Message)

	service.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Upload_StorageError(t *testing.T) {
	service := new(MockService)
	service.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(songvault.Song{}, fmt.Errorf("create song: %w: bucket unavailable", songvault.ErrStorage))

	req := multipartRequest(t, map[string]string{"name": "Imagine", "artist": "John Lennon", "year": "1971"},
		&formFile{name: "a.mp3", content: "abc"})
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "internal_error", resp.Error)
	assert.NotContains(t, resp.Message, "bucket")
}

func TestHandler_List(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return([]songvault.Song{sampleSong()}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var songs []songvault.Song
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&songs))
	require.Len(t, songs, 1)
	assert.Equal(t, "Imagine", songs[0].Name)

	service.AssertExpectations(t)
}

func TestHandler_List_Empty(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return([]songvault.Song{}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandler_List_Error(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return(nil, fmt.Errorf("list songs: %w: connection reset", songvault.ErrStorage))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	router := songhttp.NewHandler(&songhttp.HandlerConfig{Logger: logger}, service).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Contains(t, logs.String(), "request failed")
	assert.Contains(t, logs.String(), "connection reset", "internal errors go to the configured logger")
}

func TestHandler_Get(t *testing.T) {
	service := new(MockService)
	service.On("Get", mock.Anything, testID).Return(sampleSong(), nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs/"+testID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got songvault.Song
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, songvault.SongID(testID), got.ID)

	service.AssertExpectations(t)
}

func TestHandler_Get_NotFound(t *testing.T) {
	service := new(MockService)
	service.On("Get", mock.Anything, testID).
		Return(songvault.Song{}, fmt.Errorf("get song: %w", songvault.ErrNotFound))

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs/"+testID, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)
}

func TestHandler_MalformedID(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			service := new(MockService)

			rec := httptest.NewRecorder()
			newRouter(service).ServeHTTP(rec, httptest.NewRequest(method, "/songs/not-an-id", nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, "invalid_input", resp.Error)
			assert.Equal(t, "Invalid song ID format: not-an-id", resp.Message)

			service.AssertExpectations(t)
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	service := new(MockService)
	service.On("Delete", mock.Anything, testID).Return(nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/songs/"+testID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Song successfully deleted with this ID: `+testID+`"}`, rec.Body.String())

	service.AssertExpectations(t)
}

func TestHandler_Delete_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("delete song: %w", songvault.ErrNotFound), http.StatusNotFound},
		{"storage", fmt.Errorf("delete song: %w: timeout", songvault.ErrStorage), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			service.On("Delete", mock.Anything, testID).Return(tt.err)

			rec := httptest.NewRecorder()
			newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/songs/"+testID, nil))

			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandler_Download(t *testing.T) {
	service := new(MockService)
	service.On("Download", mock.Anything, songvault.StorageName("abc-imagine.mp3")).Return(songvault.Blob{
		Body:        io.NopCloser(strings.NewReader("abc")),
		ContentType: "audio/mpeg",
		Size:        3,
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs/songs/download/abc-imagine.mp3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="abc-imagine.mp3"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
	assert.Equal(t, "abc", rec.Body.String())

	service.AssertExpectations(t)
}

func TestHandler_Download_NotFound(t *testing.T) {
	service := new(MockService)
	service.On("Download", mock.Anything, songvault.StorageName("missing.mp3")).
		Return(songvault.Blob{}, songvault.ErrNotFound)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs/songs/download/missing.mp3", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Download_InvalidName(t *testing.T) {
	service := new(MockService)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs/songs/download/..", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertExpectations(t)
}

func TestHandler_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(new(MockService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(new(MockService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/albums", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandler_Metrics(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return([]songvault.Song{}, nil)

	router := songhttp.NewHandler(&songhttp.HandlerConfig{Metrics: metrics.New()}, service).Router()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/songs", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `songvault_http_requests_total{code="200",method="GET"}`)
}

func TestHandler_MetricsDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(new(MockService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CORS(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return([]songvault.Song{}, nil)

	router := songhttp.NewHandler(&songhttp.HandlerConfig{
		CORS: songhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://app.example.com"},
			AllowedMethods: []string{"GET"},
		},
	}, service).Router()

	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
