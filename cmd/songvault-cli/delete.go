package main

import (
	"os"

	"github.com/apollo-music/songvault/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id> [id...]",
	Aliases: []string{"rm"},
	Short:   "Delete songs from the server",
	Long: `Delete one or more songs and their stored files.

Every id is attempted; the command exits non-zero if any delete failed.

Examples:
  songvault-cli delete 5f8d0d55b54764421b7156c9
  songvault-cli delete -q 5f8d0d55b54764421b7156c9 5f8d0d55b54764421b7156ca`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{IDs: args})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
