// package formatter exports scraped tracklists to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Formats lists the canonical format names, for flag help.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// Tracklist is an extraction result with the context needed for a titled export.
type Tracklist struct {
	Title  string
	Source string
	Result *models.Result
}

// ParseFormat resolves a format name or common alias ("md", "txt").
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatText, "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, name, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension, without the dot, for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return format
	}
}

// ExportToCSV converts songs to CSV with columns: Position, Artist, Title, Combined
func ExportToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Artist", "Title", "Combined"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range songs {
		record := []string{strconv.Itoa(i + 1), song.Artist, song.Title, song.Combined}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a numbered tracklist under a heading, linking the source page when there is one
func ExportToMarkdown(tl Tracklist) ([]byte, error) {
	var buf bytes.Buffer

	title := tl.Title
	if title == "" {
		title = "Tracklist"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if tl.Source != "" {
		fmt.Fprintf(&buf, "**Source**: <%s>\n\n", tl.Source)
	}

	if tl.Result.Error != "" {
		fmt.Fprintf(&buf, "> %s\n", tl.Result.Error)
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n\n", tl.Result.Count)
	for i, song := range tl.Result.Songs {
		if song.Artist == "" {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, song.Title)
			continue
		}
		fmt.Fprintf(&buf, "%d. **%s** - %s\n", i+1, song.Artist, song.Title)
	}

	return buf.Bytes(), nil
}

// ExportToText writes one combined "Artist - Title" line per song, the format pasted into playlist builders
func ExportToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	for _, song := range songs {
		buf.WriteString(song.Combined)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ExportToJSON encodes the result in its wire shape: {"songs": [...], "count": n} or {"songs": [], "count": 0, "error": "..."}
func ExportToJSON(result *models.Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders tl in format.
func Export(tl Tracklist, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tl.Result.Songs)
	case FormatMarkdown:
		return ExportToMarkdown(tl)
	case FormatText:
		return ExportToText(tl.Result.Songs)
	case FormatJSON:
		return ExportToJSON(tl.Result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders tl in format and writes it to path, creating parent directories.
//
// Defaults to tracklist.{ext} in the working directory.
func WriteExport(tl Tracklist, format, path string) (string, error) {
	if path == "" {
		path = "tracklist." + Extension(format)
	}

	data, err := Export(tl, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Slug turns a URL or title into a lowercase file name stem.
func Slug(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.TrimSuffix(slug[:80], "-")
	}
	if slug == "" {
		slug = "tracklist"
	}
	return slug
}
