package main

import (
	"io"
	"os"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <file-name|id> [local-path]",
	Short: "Download a stored song file",
	Long: `Download a song file by its storage name, or by song id.

When a song id is given, the song is looked up first and its file URL
decides which file is fetched.

Examples:
  songvault-cli download 0b0e6a52-1f4e-4a43-9d3e-6f3b0a8c1d2e-imagine.mp3
  songvault-cli download 5f8d0d55b54764421b7156c9 ./imagine.mp3
  songvault-cli download --stdout 5f8d0d55b54764421b7156c9 | mpv -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := getClient()
	if err != nil {
		return err
	}

	fileName := args[0]
	if _, idErr := songvault.ParseSongID(fileName); idErr == nil {
		song, getErr := client.Get(ctx, fileName)
		if getErr != nil {
			return handleError(os.Stderr, getErr)
		}
		fileName = song.FileName()
	}

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	result, reader, err := client.Download(ctx, clientcli.DownloadOptions{
		FileName:  fileName,
		LocalPath: localPath,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Stdout carries the file; metadata only goes to stderr in JSON mode
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
