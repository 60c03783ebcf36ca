package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/config"
	"github.com/apollo-music/songvault/database"
	"github.com/apollo-music/songvault/metrics"
	"github.com/apollo-music/songvault/storage"
)

// app holds the wired backends shared by the server and the admin commands.
type app struct {
	db      database.Database
	store   songvault.ObjectStore
	service *songvault.SongService
	closers []func() error
}

// openApp connects the metadata database and the object store and builds the
// song service on top. When m is non-nil the object store is instrumented.
func openApp(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*app, error) {
	a := &app{}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	slog.Info("connected to database", "type", cfg.Database.Type, "table", cfg.Database.Tables.Songs)

	store, closeStore, err := storage.Open(cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	slog.Info("opened object store", "type", cfg.Storage.Type)

	if m != nil {
		store = metrics.InstrumentStore(store, metrics.NewStorageMetrics(m.Registry()))
	}
	a.store = store

	service, err := songvault.NewSongService(db.GetRepo(), store, songvault.ServiceConfig{
		CompensateFailedUploads: cfg.Service.CompensateFailedUploads,
		CleanupTimeout:          cfg.Service.CleanupTimeout,
		Logger:                  slog.Default(),
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}
	a.service = service

	return a, nil
}

// Close releases the backends in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
