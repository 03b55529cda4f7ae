package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/tasks"
	th "github.com/desertthunder/amx/internal/testing"
)

func sampleSummary() *tasks.SyncSummary {
	return &tasks.SyncSummary{
		Total:     3,
		Added:     1,
		Skipped:   1,
		NotFound:  1,
		Committed: true,
		Outcomes: []tasks.TrackOutcome{
			{
				Source:  models.SourceTrack{Title: "Dreams", Artist: "Fleetwood Mac"},
				Status:  tasks.StatusFound,
				Matched: &models.Track{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
			},
			{
				Source:  models.SourceTrack{Title: "Landslide", Artist: "Fleetwood Mac"},
				Status:  tasks.StatusSkipped,
				Matched: &models.Track{ID: "s2", Title: "Landslide (2004 Remaster)", Artist: "Fleetwood Mac", URI: "spotify:track:s2"},
			},
			{
				Source: models.SourceTrack{Title: "Obscure B-Side", Artist: "Nobody"},
				Status: tasks.StatusNotFound,
			},
		},
	}
}

func TestReportToCSV(t *testing.T) {
	data, err := ReportToCSV(sampleSummary())
	if err != nil {
		t.Fatalf("ReportToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d", len(records))
	}
	if records[1][3] != "found" || records[1][7] != "spotify:track:s1" {
		t.Errorf("Unexpected first row %v", records[1])
	}
	if records[3][3] != "not_found" || records[3][4] != "" {
		t.Errorf("Expected empty match columns for not found, got %v", records[3])
	}
}

func TestReportToMarkdown(t *testing.T) {
	md := string(ReportToMarkdown("Summer Mix", sampleSummary()))

	for _, want := range []string{
		"# Sync Report: Summer Mix",
		"**Added**: 1",
		"## Added",
		"## Skipped (already present)",
		"## Not Found",
		"matched: Fleetwood Mac - Landslide (2004 Remaster)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}

func TestReportToMarkdownOmitsEmptySections(t *testing.T) {
	summary := &tasks.SyncSummary{
		Total: 1,
		Added: 1,
		Outcomes: []tasks.TrackOutcome{
			{
				Source:  models.SourceTrack{Title: "Dreams", Artist: "Fleetwood Mac"},
				Status:  tasks.StatusFound,
				Matched: &models.Track{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
			},
		},
	}

	md := string(ReportToMarkdown("Mix", summary))
	if strings.Contains(md, "## Not Found") {
		t.Error("Expected empty section to be omitted")
	}
}

func TestReportToText(t *testing.T) {
	summary := sampleSummary()
	summary.Committed = false

	text := string(ReportToText("Summer Mix", summary))
	if !strings.Contains(text, "Total: 3  Added: 1  Skipped: 1  Not found: 1") {
		t.Errorf("Expected counts line, got %q", text)
	}
	if !strings.Contains(text, "Warning: additions were not committed") {
		t.Error("Expected uncommitted warning")
	}
	if !strings.Contains(text, "1. [ADD] Fleetwood Mac - Dreams") {
		t.Errorf("Expected status-labelled line, got %q", text)
	}
}

func TestReportToJSON(t *testing.T) {
	data, err := ReportToJSON(sampleSummary())
	if err != nil {
		t.Fatalf("ReportToJSON failed: %v", err)
	}
	if !strings.Contains(string(data), `"committed": true`) {
		t.Errorf("Expected committed flag in JSON, got %s", data)
	}
}

func TestTracksToCSV(t *testing.T) {
	playlist := &models.SourcePlaylist{
		Name: "Summer Mix",
		Tracks: []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
			{Title: "Landslide", Artist: "Fleetwood Mac"},
		},
	}

	data, err := TracksToCSV(playlist)
	if err != nil {
		t.Fatalf("TracksToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 || records[2][1] != "Landslide" {
		t.Errorf("Unexpected records %v", records)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format string
		ext    string
	}{
		{"csv", ".csv"},
		{"markdown", ".md"},
		{"text", ".txt"},
		{"json", ".json"},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			base := filepath.Join(dir, "report_"+tc.format)
			result, err := WriteReport("Mix", sampleSummary(), tc.format, base)
			if err != nil {
				t.Fatalf("WriteReport failed: %v", err)
			}
			if result.File != base+tc.ext {
				t.Errorf("Expected %q, got %q", base+tc.ext, result.File)
			}
			th.AssertFileExists(t, result.File)
		})
	}

	if _, err := WriteReport("Mix", sampleSummary(), "yaml", filepath.Join(dir, "x")); err == nil {
		t.Error("Expected unsupported format error")
	}
}
