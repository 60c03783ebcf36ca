package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultMaxUploadBytes is the multipart body limit used when none is configured.
const DefaultMaxUploadBytes int64 = 50 << 20

// maxMemory is how much of a multipart form is kept in memory before parts
// spill to temporary files.
const maxMemory = 8 << 20

type Service interface {
	Create(ctx context.Context, meta songvault.NewSong, up songvault.Upload) (songvault.Song, error)
	List(ctx context.Context) ([]songvault.Song, error)
	Get(ctx context.Context, rawID string) (songvault.Song, error)
	Delete(ctx context.Context, rawID string) error
	Download(ctx context.Context, name songvault.StorageName) (songvault.Blob, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	MaxUploadBytes int64
	CORS           CORSConfig
	// Metrics enables the /metrics endpoint and HTTP instrumentation when set.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Handler provides HTTP handlers for song operations.
type Handler struct {
	config  HandlerConfig
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		config:  cfg,
		service: service,
		logger:  logger,
	}
}

// Router returns an http.Handler with every song route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	if h.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.config.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", h.handleHealth)

	r.Route("/songs", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/upload", h.handleUpload)
		r.Get("/songs/download/{fileName}", h.handleDownload)

		r.Group(func(r chi.Router) {
			r.Use(SongIDValidation)
			r.Get("/{id}", h.handleGet)
			r.Delete("/{id}", h.handleDelete)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	songs, err := h.service.List(r.Context())
	if err != nil {
		HandleError(h.logger, w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, songs)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(h.logger, w, err)
			return
		}
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, "Request must be a multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	yearStr := r.FormValue("year")
	if yearStr == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, "year is required")
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, fmt.Sprintf("year must be an integer: %s", yearStr))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	meta := songvault.NewSong{
		Name:   r.FormValue("name"),
		Artist: r.FormValue("artist"),
		Year:   year,
	}
	up := songvault.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}

	song, err := h.service.Create(r.Context(), meta, up)
	if err != nil {
		HandleError(h.logger, w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, song)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	song, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, songvault.ErrNotFound) {
			WriteError(w, http.StatusNotFound, CodeNotFound, "Song not found with this ID: "+id)
		} else {
			HandleError(h.logger, w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, song)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, songvault.ErrNotFound) {
			WriteError(w, http.StatusNotFound, CodeNotFound, "Song not found with this ID: "+id)
		} else {
			HandleError(h.logger, w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "Song successfully deleted with this ID: " + id,
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")

	name, err := songvault.ParseStorageName(fileName)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid file name: "+fileName)
		return
	}

	blob, err := h.service.Download(r.Context(), name)
	if err != nil {
		if errors.Is(err, songvault.ErrNotFound) {
			WriteError(w, http.StatusNotFound, CodeNotFound, "File not found: "+fileName)
		} else {
			HandleError(h.logger, w, err)
		}
		return
	}
	defer func() { _ = blob.Body.Close() }()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = songvault.DefaultContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if blob.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("download interrupted", "file_name", name, "error", err)
	}
}
