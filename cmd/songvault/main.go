package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/apollo-music/songvault/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "songvault",
	Short:   "Song metadata and audio file server",
	Long: `Songvault stores audio files in an object store and keeps a song
record (name, artist, year and file location) for each upload in a
metadata database. It serves both over a small JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres, mongodb (default: sqlite, env: SONGVAULT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: songvault.db, env: SONGVAULT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("db-name", "", "mongodb database name (default: songvault, env: SONGVAULT_DATABASE_NAME)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store type: filesystem, minio (default: filesystem, env: SONGVAULT_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (default: ./data, env: SONGVAULT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (default: text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
