package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/apollo-music/songvault/config"
	"github.com/apollo-music/songvault/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the songs table or collection",
	Long: `Create the songs table (sqlite, postgres) or collection (mongodb)
with its list order index and check the resulting schema. Safe to rerun.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		db, err := database.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		slog.Info("schema ready", "database", cfg.Database.Type, "songs", cfg.Database.Tables.Songs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
