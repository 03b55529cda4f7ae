package tasks

import (
	"fmt"

	"github.com/desertthunder/amx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// SyncProgress is the Data payload attached to per-track updates: a snapshot of
// every outcome so far plus the index of the track currently being processed.
type SyncProgress struct {
	Outcomes []TrackOutcome
	Current  int
}

// Operation phase enumeration
type Phase int

const (
	ExtractSource Phase = iota
	BuildIndex
	SearchTracks
	CommitBatch
	Complete
)

func (p Phase) String() string {
	switch p {
	case ExtractSource:
		return "extract_source"
	case BuildIndex:
		return "build_index"
	case SearchTracks:
		return "search_tracks"
	case CommitBatch:
		return "commit_batch"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func buildIndexUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildIndex,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching existing tracks from playlist %s...", playlistID),
	}
}

func indexBuiltUpdate(size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildIndex,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist currently has %d tracks", size),
	}
}

func searchingUpdate(i, total int, tr models.SourceTrack, snapshot SyncProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    i + 1,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s - %s", i+1, total, tr.Artist, tr.Title),
		Data:    snapshot,
	}
}

func resolvedUpdate(i, total int, outcome TrackOutcome, snapshot SyncProgress) ProgressUpdate {
	var msg string
	switch outcome.Status {
	case StatusFound:
		msg = fmt.Sprintf("[%d/%d] ADD: %s - %s", i+1, total, outcome.Source.Title, outcome.Source.Artist)
	case StatusSkipped:
		msg = fmt.Sprintf("[%d/%d] SKIP (dup): %s - %s", i+1, total, outcome.Source.Title, outcome.Source.Artist)
	case StatusNotFound:
		msg = fmt.Sprintf("[%d/%d] NOT FOUND: %s - %s", i+1, total, outcome.Source.Title, outcome.Source.Artist)
	default:
		msg = fmt.Sprintf("[%d/%d] %s - %s", i+1, total, outcome.Source.Title, outcome.Source.Artist)
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    i + 1,
		Total:   total,
		Message: msg,
		Data:    snapshot,
	}
}

func commitUpdate(batch, totalBatches, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CommitBatch,
		Step:    batch,
		Total:   totalBatches,
		Message: fmt.Sprintf("Adding batch %d/%d (%d tracks)...", batch, totalBatches, size),
	}
}

func completeUpdate(summary *SyncSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete: %d added, %d skipped, %d not found", summary.Added, summary.Skipped, summary.NotFound),
		Data:    summary,
	}
}
