package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/apollo-music/songvault/clientcli"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	configureURL       string
	configureAsDefault bool
	configureYes       bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage named songvault servers in ~/.songvault/config.yaml.

Select a profile with --profile or SONGVAULT_PROFILE.`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles, marking the default with *",
	Args:  cobra.NoArgs,
	RunE:  runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile",
	Long: `Add or update a profile.

Without --url the endpoint is prompted for. The server's health check is
tried before the profile is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile, the default one when no name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

func init() {
	configureAddCmd.Flags().StringVar(&configureURL, "url", "", "endpoint URL (skips the prompt)")
	configureAddCmd.Flags().BoolVar(&configureAsDefault, "default", false, "make this the default profile")
	configureCmd.PersistentFlags().BoolVarP(&configureYes, "yes", "y", false, "answer yes to confirmations")

	configureCmd.AddCommand(
		configureListCmd,
		configureAddCmd,
		configureRemoveCmd,
		configureSetDefaultCmd,
		configureShowCmd,
	)
}

// loadProfiles reads the profile file. A missing file yields an empty one
// unless mustExist is set.
func loadProfiles(mustExist bool) (*clientcli.ConfigFile, string, error) {
	path := getConfigPath()

	cfg, err := clientcli.LoadConfigFile(path)
	switch {
	case err == nil:
		return cfg, path, nil
	case errors.Is(err, os.ErrNotExist) && !mustExist:
		return &clientcli.ConfigFile{}, path, nil
	default:
		return nil, path, err
	}
}

// confirm asks a yes/no question. --yes answers it.
func confirm(label string) bool {
	if configureYes {
		return true
	}
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	cfg, _, err := loadProfiles(false)
	if err != nil {
		return err
	}

	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles configured. Run 'songvault-cli configure add <name>' to create one.")
		return nil
	}

	def, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}
	return getFormatter().FormatProfileList(os.Stdout, cfg.Profiles, def.Name)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, path, err := loadProfiles(false)
	if err != nil {
		return err
	}

	existing, _ := cfg.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile '%s' exists. Update it", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	endpoint, err := promptEndpoint(existing)
	if err != nil {
		return handlePromptError(err)
	}

	makeDefault := configureAsDefault ||
		len(cfg.Profiles) == 0 ||
		(existing != nil && existing.Default)
	if !makeDefault && configureURL == "" {
		makeDefault = confirm("Set as default profile")
	}

	fmt.Print("Checking server health... ")
	if err := checkHealth(cmd.Context(), endpoint); err != nil {
		fmt.Printf("failed: %v\n", err)
		if !confirm("Save profile anyway") {
			fmt.Println("Cancelled.")
			return nil
		}
	} else {
		fmt.Println("ok")
	}

	p := clientcli.Profile{Name: name, Endpoint: endpoint}
	if existing != nil {
		err = cfg.UpdateProfile(p)
	} else {
		err = cfg.AddProfile(p)
	}
	if err != nil {
		return err
	}

	if makeDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' saved", name)
	if makeDefault {
		fmt.Print(" as default")
	}
	fmt.Println(".")
	return nil
}

// promptEndpoint returns --url when given, otherwise asks for the endpoint
// defaulting to the existing profile's.
func promptEndpoint(existing *clientcli.Profile) (string, error) {
	if configureURL != "" {
		if err := validateEndpoint(configureURL); err != nil {
			return "", err
		}
		return strings.TrimSuffix(configureURL, "/"), nil
	}

	def := clientcli.DefaultEndpoint
	if existing != nil {
		def = existing.Endpoint
	}

	endpoint, err := (&promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  def,
		Validate: validateEndpoint,
	}).Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(endpoint, "/"), nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]

	cfg, path, err := loadProfiles(true)
	if err != nil {
		return err
	}

	if _, err := cfg.GetProfile(name); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	cfg, path, err := loadProfiles(true)
	if err != nil {
		return err
	}

	if err := cfg.SetDefault(args[0]); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Default profile set to '%s'.\n", args[0])
	return nil
}

func runConfigureShow(_ *cobra.Command, args []string) error {
	cfg, _, err := loadProfiles(true)
	if err != nil {
		return err
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}

	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}
	def, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(os.Stdout, *p, p.Name == def.Name)
}

func validateEndpoint(input string) error {
	u, err := url.Parse(input)
	switch {
	case input == "":
		return errors.New("endpoint URL is required")
	case err != nil:
		return fmt.Errorf("invalid URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return errors.New("URL must start with http:// or https://")
	case u.Host == "":
		return errors.New("URL must include a host")
	}
	return nil
}

func checkHealth(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpoint})
	if err != nil {
		return err
	}
	return client.Health(ctx)
}

func handlePromptError(err error) error {
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		fmt.Println()
		os.Exit(130)
	case errors.Is(err, promptui.ErrAbort):
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
