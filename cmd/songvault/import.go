package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/config"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <file>",
	Short: "Import a local audio file as a new song",
	Long: `Upload a local file to the object store and create its song record,
exactly as POST /songs/upload would.

Examples:
  # Import with explicit metadata
  songvault import --name Imagine --artist "John Lennon" --year 1971 imagine.mp3

  # Name defaults to the file name without its extension
  songvault import --artist "John Lennon" --year 1971 Imagine.flac`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importName   string
	importArtist string
	importYear   int
)

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "song name (default: file name without extension)")
	importCmd.Flags().StringVar(&importArtist, "artist", "", "artist name")
	importCmd.Flags().IntVar(&importYear, "year", 0, "release year")
	_ = importCmd.MarkFlagRequired("artist")
	_ = importCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sourcePath := args[0]

	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", sourcePath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", sourcePath)
	}

	name := importName
	if name == "" {
		base := filepath.Base(sourcePath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	song, err := a.service.Create(ctx,
		songvault.NewSong{Name: name, Artist: importArtist, Year: importYear},
		songvault.Upload{
			Filename:    filepath.Base(sourcePath),
			ContentType: songvault.ContentTypeByName(sourcePath),
			Size:        info.Size(),
			Content:     f,
		},
	)
	if err != nil {
		return fmt.Errorf("import %s: %w", sourcePath, err)
	}

	slog.Info("imported", "id", song.ID, "name", song.Name, "artist", song.Artist,
		"file_url", song.FileLocation, "size", song.FileSizeBytes)
	return nil
}
