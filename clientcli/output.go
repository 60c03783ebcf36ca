package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

const (
	maxNameWidth   = 40
	maxArtistWidth = 30
)

// Formatter renders command results, either for people or as JSON.
type Formatter interface {
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatSong(w io.Writer, song *Song) error
	FormatList(w io.Writer, songs []Song) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter writes aligned text. Quiet drops everything but ids and
// errors.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	song := result.Song
	if f.Quiet {
		_, err := fmt.Fprintln(w, song.ID)
		return err
	}

	_, err := fmt.Fprintf(w, "Uploaded: %s (%s)\n  ID:       %s\n  File URL: %s\n",
		result.LocalPath, formatSize(song.FileSizeBytes), song.ID, song.FileURL)
	return err
}

func (f *HumanFormatter) FormatSong(w io.Writer, song *Song) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", song.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", song.Name)
	fmt.Fprintf(tw, "Artist:\t%s\n", song.Artist)
	fmt.Fprintf(tw, "Year:\t%d\n", song.Year)
	fmt.Fprintf(tw, "File URL:\t%s\n", song.FileURL)
	if !f.Quiet {
		fmt.Fprintf(tw, "Content Type:\t%s\n", song.ContentType)
		fmt.Fprintf(tw, "Size:\t%s\n", formatSize(song.FileSizeBytes))
		fmt.Fprintf(tw, "Created:\t%s\n", song.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

// FormatList prints one row per song followed by a count and total size.
func (f *HumanFormatter) FormatList(w io.Writer, songs []Song) error {
	if len(songs) == 0 {
		_, err := fmt.Fprintln(w, "No songs found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tARTIST\tYEAR\tSIZE")

	var total int64
	for _, s := range songs {
		total += s.FileSizeBytes
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			s.ID, truncate(s.Name, maxNameWidth), truncate(s.Artist, maxArtistWidth), s.Year, formatSize(s.FileSizeBytes))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if f.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%d song(s) (%s total)\n", len(songs), formatSize(total))
	return err
}

func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}

	target := ""
	if result.LocalPath != "-" {
		target = " -> " + result.LocalPath
	}
	_, err := fmt.Fprintf(w, "Downloaded: %s%s (%s)\n", result.FileName, target, formatSize(result.Size))
	return err
}

// FormatDelete reports each id. Failures are printed even when quiet.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "Error: %s - %v\n", r.ID, r.Err)
		case !f.Quiet:
			fmt.Fprintf(w, "Deleted: %s\n", r.ID)
		}
	}
	return nil
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tENDPOINT")
	for _, p := range profiles {
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", marker, p.Name, p.Endpoint)
	}
	return tw.Flush()
}

func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	suffix := ""
	if isDefault {
		suffix = " (default)"
	}
	_, err := fmt.Fprintf(w, "Name:     %s%s\nEndpoint: %s\n", profile.Name, suffix, profile.Endpoint)
	return err
}

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct{}

type deleteView struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type profileView struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Default  bool   `json:"default"`
}

func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatSong(w io.Writer, song *Song) error {
	return writeJSON(w, song)
}

// FormatList always writes an array, [] when there are no songs.
func (f *JSONFormatter) FormatList(w io.Writer, songs []Song) error {
	if songs == nil {
		songs = []Song{}
	}
	return writeJSON(w, songs)
}

func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	views := make([]deleteView, 0, len(results))
	for _, r := range results {
		v := deleteView{ID: r.ID, Deleted: r.Deleted, Message: r.Message}
		if r.Err != nil {
			v.Error = r.Err.Error()
		}
		views = append(views, v)
	}
	return writeJSON(w, map[string][]deleteView{"results": views})
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, profileView{Name: p.Name, Endpoint: p.Endpoint, Default: p.Name == defaultName})
	}
	return writeJSON(w, map[string][]profileView{"profiles": views})
}

func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	return writeJSON(w, profileView{Name: profile.Name, Endpoint: profile.Endpoint, Default: isDefault})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// formatSize renders n bytes with a binary unit and one decimal.
func formatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	size := float64(n) / 1024
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
