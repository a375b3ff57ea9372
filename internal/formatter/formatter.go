// package formatter renders replay listings as CSV, Markdown, plain text or JSON
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
	"time"

	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// Output formats understood by [Render] and [WriteExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}
}

// Export is a filtered replay listing ready to be written out.
type Export struct {
	Username string          `json:"username"`
	Filters  string          `json:"filters,omitempty"`
	BaseURL  string          `json:"base_url"`
	Exported time.Time       `json:"exported"`
	Replays  []models.Replay `json:"replays"`
}

// Row is the flattened view of one replay used by every tabular format.
type Row struct {
	ShortID      string
	Date         string
	Mode         string
	Format       string
	Player       string
	PlayerClass  string
	Opponent     string
	OpponentHero string
	Result       string
	Turns        int
	Duration     string
	URL          string
}

// NewRow flattens r. baseURL may be empty, in which case URL is left blank.
func NewRow(r models.Replay, baseURL string) Row {
	row := Row{
		ShortID: r.ShortID,
		Mode:    r.GlobalGame.GameType.Label(),
		Format:  FormatLabel(r.GlobalGame.Format),
		Result:  ResultLabel(r),
		Turns:   r.GlobalGame.NumTurns,
	}
	if !r.GlobalGame.MatchStart.IsZero() {
		row.Date = r.GlobalGame.MatchStart.UTC().Format("2006-01-02 15:04")
	}
	if d := r.GlobalGame.Duration(); d > 0 {
		row.Duration = d.Round(time.Second).String()
	}
	if p, ok := r.FriendlyPlayer(); ok {
		row.Player = p.Name
		row.PlayerClass = filters.ClassifyHero(p.HeroID).Title()
	}
	if p, ok := r.OpposingPlayer(); ok {
		row.Opponent = p.Name
		row.OpponentHero = filters.ClassifyHero(p.HeroID).Title()
	}
	if baseURL != "" {
		row.URL = shared.ReplayURL(baseURL, r.ShortID, "")
	}
	return row
}

// FormatLabel is the display name of a format.
func FormatLabel(f models.FormatType) string {
	switch f {
	case models.FormatStandard:
		return "Standard"
	case models.FormatWild:
		return "Wild"
	default:
		return ""
	}
}

// ResultLabel is "Won", "Lost" or "Disconnected".
func ResultLabel(r models.Replay) string {
	switch {
	case r.Disconnected:
		return "Disconnected"
	case r.Won:
		return "Won"
	default:
		return "Lost"
	}
}

func (e *Export) rows() []Row {
	rows := make([]Row, len(e.Replays))
	for i, r := range e.Replays {
		rows[i] = NewRow(r, e.BaseURL)
	}
	return rows
}

// ExportToCSV writes one row per replay with a header line.
func ExportToCSV(e *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ShortID", "Date", "Mode", "Format", "Player", "Class", "Opponent", "Opponent Class", "Result", "Turns", "Duration", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range e.rows() {
		record := []string{
			row.ShortID, row.Date, row.Mode, row.Format,
			row.Player, row.PlayerClass, row.Opponent, row.OpponentHero,
			row.Result, strconv.Itoa(row.Turns), row.Duration, row.URL,
		}
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

// ExportToMarkdown renders a heading, the filter summary and a table.
func ExportToMarkdown(e *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Replays of %s\n\n", e.Username)
	if e.Filters != "" {
		fmt.Fprintf(&buf, "**Filters**: `%s`\n", e.Filters)
	}
	fmt.Fprintf(&buf, "**Replays**: %d\n", len(e.Replays))
	if !e.Exported.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", e.Exported.UTC().Format(time.RFC3339))
	}
	buf.WriteString("\n")

	buf.WriteString("| Date | Mode | Player | Opponent | Result | Turns |\n")
	buf.WriteString("|------|------|--------|----------|--------|-------|\n")
	for _, row := range e.rows() {
		date := row.Date
		if row.URL != "" {
			date = fmt.Sprintf("[%s](%s)", row.Date, row.URL)
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %d |\n",
			date,
			strings.TrimSpace(row.Mode+" "+row.Format),
			mdCell(row.Player, row.PlayerClass),
			mdCell(row.Opponent, row.OpponentHero),
			row.Result,
			row.Turns,
		)
	}
	return buf.Bytes(), nil
}

func mdCell(name, class string) string {
	name = strings.ReplaceAll(name, "|", `\|`)
	if class == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, class)
}

// ExportToText renders one line per replay.
func ExportToText(e *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "User: %s\n", e.Username)
	if e.Filters != "" {
		fmt.Fprintf(&buf, "Filters: %s\n", e.Filters)
	}
	fmt.Fprintf(&buf, "Replays: %d\n\n", len(e.Replays))

	for i, row := range e.rows() {
		fmt.Fprintf(&buf, "%d. [%s] %s vs %s (%s) %s\n", i+1, row.ShortID, row.PlayerClass, row.OpponentHero, row.Mode, row.Result)
	}
	return buf.Bytes(), nil
}

// ExportToJSON writes the export as indented JSON.
func ExportToJSON(e *Export) ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// Render produces e in format. Unknown formats are rejected.
func Render(e *Export, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(e)
	case FormatMarkdown, "md":
		return ExportToMarkdown(e)
	case FormatText, "text":
		return ExportToText(e)
	case FormatJSON, "":
		return ExportToJSON(e)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// Extension is the file extension used for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown, "md":
		return ".md"
	case FormatText, "text":
		return ".txt"
	case FormatCSV:
		return ".csv"
	default:
		return ".json"
	}
}

// WriteExport renders e and writes it to path.
//
// Defaults to replays_{username}{ext} in the working directory. Parent
// directories are created.
func WriteExport(e *Export, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("replays_%s%s", e.Username, Extension(format))
	}

	data, err := Render(e, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
