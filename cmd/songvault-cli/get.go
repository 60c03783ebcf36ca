package main

import (
	"os"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one song",
	Long: `Show the metadata of one song by its 24 character hex id.

Examples:
  songvault-cli get 5f8d0d55b54764421b7156c9
  songvault-cli get --json 5f8d0d55b54764421b7156c9`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	song, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatSong(os.Stdout, song)
}
