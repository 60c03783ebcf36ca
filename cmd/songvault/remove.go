package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <id1> [id2] ...",
	Short: "Delete songs and their files",
	Long: `Delete songs by id. Each song's file is removed from the object store
first and its record second, exactly as DELETE /songs/{id} would.

Examples:
  # Remove a single song
  songvault remove 65f1a2b3c4d5e6f7a8b9c0d1

  # Remove several songs quietly
  songvault remove -q 65f1a2b3c4d5e6f7a8b9c0d1 65f1a2b3c4d5e6f7a8b9c0d2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var removeQuiet bool

func init() {
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-song output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	removed := 0
	notFound := 0

	for _, id := range args {
		deleteErr := a.service.Delete(ctx, id)
		if errors.Is(deleteErr, songvault.ErrNotFound) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "id", id)
			}
			continue
		}
		if deleteErr != nil {
			return fmt.Errorf("remove %s: %w", id, deleteErr)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}
