package main

import (
	"errors"
	"os"

	"github.com/apollo-music/songvault/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadName        string
	uploadArtist      string
	uploadYear        int
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload a song to the server",
	Long: `Upload an audio file together with its song metadata.

The song name defaults to the file name without its extension. The content
type is detected from the extension unless --content-type is given.

Examples:
  songvault-cli upload ./imagine.mp3 --artist "John Lennon" --year 1971
  songvault-cli upload ./track01.flac --name "Jealous Guy" --artist "John Lennon" --year 1971
  songvault-cli upload -q ./song.mp3 --artist A --year 2000`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "song name (default: file name)")
	uploadCmd.Flags().StringVarP(&uploadArtist, "artist", "a", "", "artist name")
	uploadCmd.Flags().IntVarP(&uploadYear, "year", "y", 0, "release year")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
	_ = uploadCmd.MarkFlagRequired("artist")
	_ = uploadCmd.MarkFlagRequired("year")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadYear <= 0 {
		return handleError(os.Stderr, errors.New("--year must be a positive integer"))
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:   args[0],
		Name:        uploadName,
		Artist:      uploadArtist,
		Year:        uploadYear,
		ContentType: uploadContentType,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}
