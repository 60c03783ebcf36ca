// Package storage opens the configured songvault.ObjectStore backend.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/filesystem"
	"github.com/apollo-music/songvault/storage/minio"
)

// Config selects and configures an object store backend.
type Config struct {
	// Type is "filesystem" or "minio".
	Type string `mapstructure:"type" validate:"required,oneof=filesystem minio"`
	// Path is the filesystem root directory.
	Path string `mapstructure:"path"`
	// BaseURL overrides the filesystem location prefix.
	BaseURL string `mapstructure:"base_url"`
	// Minio configures the minio backend.
	Minio minio.Config `mapstructure:"minio"`
}

// Open returns the configured store and a function releasing its resources.
func Open(cfg Config) (songvault.ObjectStore, func() error, error) {
	switch cfg.Type {
	case "filesystem":
		return openFilesystem(cfg)
	case "minio":
		store, err := minio.New(cfg.Minio)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage: %w", err)
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func openFilesystem(cfg Config) (songvault.ObjectStore, func() error, error) {
	if cfg.Path == "" {
		return nil, nil, fmt.Errorf("open storage: filesystem path cannot be empty")
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("open storage: create %s: %w", absPath, err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	var opts []filesystem.Option
	if cfg.BaseURL != "" {
		opts = append(opts, filesystem.WithBaseURL(cfg.BaseURL))
	}

	return filesystem.NewFileStorage(root, opts...), root.Close, nil
}
