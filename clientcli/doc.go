// Package clientcli provides a client library for songvault servers.
//
// It supports upload, list, get, delete and download operations over the
// server's JSON API. The package includes profile-based configuration for
// managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a song:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./imagine.mp3",
//		Name:      "Imagine",
//		Artist:    "John Lennon",
//		Year:      1971,
//	})
//
// Server errors are returned as *APIError and match the sentinels with errors.Is:
//
//	if errors.Is(err, clientcli.ErrNotFound) { ... }
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, songs)
package clientcli
