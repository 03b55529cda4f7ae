// package formatter renders sync results and extracted track lists to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
)

// ReportToCSV converts a sync summary to CSV with one row per source track.
func ReportToCSV(summary *tasks.SyncSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Source Title", "Source Artist", "Status", "Matched ID", "Matched Title", "Matched Artist", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, outcome := range summary.Outcomes {
		record := []string{
			strconv.Itoa(i + 1),
			outcome.Source.Title,
			outcome.Source.Artist,
			outcome.Status.String(),
			"", "", "", "",
		}
		if outcome.Matched != nil {
			record[4] = outcome.Matched.ID
			record[5] = outcome.Matched.Title
			record[6] = outcome.Matched.Artist
			record[7] = outcome.Matched.URI
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

// ReportToMarkdown converts a sync summary to Markdown, grouped by outcome.
func ReportToMarkdown(name string, summary *tasks.SyncSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Sync Report: %s\n\n", name))
	buf.WriteString(fmt.Sprintf("**Total**: %d\n", summary.Total))
	buf.WriteString(fmt.Sprintf("**Added**: %d\n", summary.Added))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", summary.Skipped))
	buf.WriteString(fmt.Sprintf("**Not found**: %d\n", summary.NotFound))
	buf.WriteString(fmt.Sprintf("**Committed**: %t\n\n", summary.Committed))

	sections := []struct {
		title  string
		status tasks.Status
	}{
		{"Added", tasks.StatusFound},
		{"Skipped (already present)", tasks.StatusSkipped},
		{"Not Found", tasks.StatusNotFound},
	}

	for _, section := range sections {
		var lines []string
		for i, outcome := range summary.Outcomes {
			if outcome.Status != section.status {
				continue
			}
			line := fmt.Sprintf("%d. %s - %s", i+1, outcome.Source.Artist, outcome.Source.Title)
			if outcome.Matched != nil && outcome.Matched.Title != outcome.Source.Title {
				line += fmt.Sprintf(" (matched: %s - %s)", outcome.Matched.Artist, outcome.Matched.Title)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", section.title))
		for _, line := range lines {
			buf.WriteString(line + "\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ReportToText converts a sync summary to plain text.
func ReportToText(name string, summary *tasks.SyncSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", name))
	buf.WriteString(fmt.Sprintf("Total: %d  Added: %d  Skipped: %d  Not found: %d\n", summary.Total, summary.Added, summary.Skipped, summary.NotFound))
	if !summary.Committed {
		buf.WriteString("Warning: additions were not committed\n")
	}
	buf.WriteString("\n")

	for i, outcome := range summary.Outcomes {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s\n", i+1, statusLabel(outcome.Status), outcome.Source.Artist, outcome.Source.Title))
	}

	return buf.Bytes()
}

func statusLabel(status tasks.Status) string {
	switch status {
	case tasks.StatusFound:
		return "ADD"
	case tasks.StatusSkipped:
		return "SKIP"
	case tasks.StatusNotFound:
		return "MISS"
	default:
		return status.String()
	}
}

// ReportToJSON generates an indented JSON representation of the summary.
func ReportToJSON(summary *tasks.SyncSummary) ([]byte, error) {
	return shared.MarshalJSON(summary, true)
}

// TracksToCSV converts an extracted source playlist to CSV for preview exports.
func TracksToCSV(playlist *models.SourcePlaylist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range playlist.Tracks {
		if err := writer.Write([]string{strconv.Itoa(i + 1), track.Title, track.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportResult contains the path of the file created by WriteReport.
type ReportResult struct {
	File string
}

// WriteReport renders the summary in the requested format and writes it next
// to the base filepath. Supported formats: csv, markdown, text, json.
func WriteReport(name string, summary *tasks.SyncSummary, format, baseFilepath string) (*ReportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "sync_report"
	}

	var (
		data []byte
		ext  string
		err  error
	)

	switch format {
	case "csv":
		data, err = ReportToCSV(summary)
		ext = ".csv"
	case "markdown", "md":
		data = ReportToMarkdown(name, summary)
		ext = ".md"
	case "text", "txt":
		data = ReportToText(name, summary)
		ext = ".txt"
	case "json":
		data, err = ReportToJSON(summary)
		ext = ".json"
	default:
		return nil, fmt.Errorf("%w: unsupported report format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	file := baseFilepath + ext
	if err := os.WriteFile(file, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report file: %w", err)
	}

	return &ReportResult{File: file}, nil
}
