package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Find orphaned files and dangling song records",
	Long: `Compare the object store with the song records.

An orphan is a stored file that no song record points to, left behind
when a record insert failed after its upload. A dangling record points
to a file that no longer exists. Both are reported; with --delete the
orphaned files are removed. Dangling records are never modified, and
--delete removes nothing when a record's file URL does not belong to the
configured store (for example after storage.base_url changed).

Use --min-age to leave recent files alone, since an upload in progress
has its file stored before its record.`,
	RunE: runSweep,
}

var (
	sweepDelete bool
	sweepMinAge time.Duration
)

func init() {
	sweepCmd.Flags().BoolVar(&sweepDelete, "delete", false, "delete orphaned files")
	sweepCmd.Flags().DurationVar(&sweepMinAge, "min-age", time.Hour, "only consider files older than this")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	slog.Info("starting sweep", "delete", sweepDelete, "min_age", sweepMinAge)

	result, err := a.service.Sweep(ctx, songvault.SweepOptions{Delete: sweepDelete, MinAge: sweepMinAge})
	for _, obj := range result.Orphans {
		slog.Info("orphan", "name", obj.Name, "size", obj.Size, "last_modified", obj.LastModified)
	}
	for _, song := range result.Dangling {
		slog.Warn("dangling record", "id", song.ID, "file_url", song.FileLocation)
	}
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	slog.Info("sweep complete", "orphans", len(result.Orphans), "dangling", len(result.Dangling), "deleted", result.Deleted)
	return nil
}
