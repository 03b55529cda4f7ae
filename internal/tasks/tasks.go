// package tasks implements the playlist sync engine.
//
// The core abstraction is SyncEngine, which reconciles an extracted source
// track list against a destination playlist: it builds a dedup index from the
// playlist's current contents, resolves each source track against the remote
// catalog, and commits confirmed additions in batches. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI
// layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"golang.org/x/time/rate"
)

// Status is the lifecycle state of a single source track within a run.
// Transitions are strictly forward: pending → searching → found | not_found | skipped.
type Status int

const (
	StatusPending Status = iota
	StatusSearching
	StatusFound
	StatusNotFound
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSearching:
		return "searching"
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusSkipped:
		return "skipped"
	default:
		return ""
	}
}

// Terminal reports whether the status is a final classification.
func (s Status) Terminal() bool {
	return s == StatusFound || s == StatusNotFound || s == StatusSkipped
}

// TrackOutcome is the per-track result, index-aligned with the source list.
// Matched is set iff the status is found or skipped.
type TrackOutcome struct {
	Source  models.SourceTrack `json:"source"`
	Status  Status             `json:"status"`
	Matched *models.Track      `json:"matched,omitempty"`
}

// SyncSummary aggregates a completed (or cancelled) run.
//
// Added counts tracks classified found; Committed reports whether the queued
// additions actually reached the destination. A failed commit phase returns
// the summary with Committed false alongside the error, so callers can
// distinguish "classification succeeded, persistence failed".
type SyncSummary struct {
	Total     int            `json:"total"`
	Added     int            `json:"added"`
	Skipped   int            `json:"skipped"`
	NotFound  int            `json:"not_found"`
	Committed bool           `json:"committed"`
	Outcomes  []TrackOutcome `json:"outcomes"`
}

// recount recomputes the aggregate counters from the outcome list.
func (s *SyncSummary) recount() {
	s.Added, s.Skipped, s.NotFound = 0, 0, 0
	for _, o := range s.Outcomes {
		switch o.Status {
		case StatusFound:
			s.Added++
		case StatusSkipped:
			s.Skipped++
		case StatusNotFound:
			s.NotFound++
		}
	}
}

// TrackCacher persists resolved matches across runs.
//
// Lookup misses return (nil, nil); cache failures are non-fatal and only
// surface as log noise at the call site.
type TrackCacher interface {
	LookupMatch(title, artist string) (*models.Track, error)
	CacheMatch(source models.SourceTrack, match models.Track) error
}

// SyncEngine defines operations for syncing a source track list into a destination playlist.
type SyncEngine interface {
	// Sync classifies every source track against the destination playlist and
	// appends the confirmed additions, streaming progress as it goes.
	Sync(ctx context.Context, tracks []models.SourceTrack, playlistID string, progress chan<- ProgressUpdate) (*SyncSummary, error)
}

// EngineOpts contains tuning knobs for a sync run.
type EngineOpts struct {
	SearchLimit         int           // candidates for the structured query (default 5)
	FallbackSearchLimit int           // candidates for the free-text fallback (default 3)
	Pace                time.Duration // fixed delay between per-track iterations (default 250ms)
	BatchSize           int           // URIs per append call (default and API max 100)
	DryRun              bool          // classify only; skip the commit phase
}

// PlaylistEngine implements SyncEngine against a [services.Catalog].
type PlaylistEngine struct {
	catalog services.Catalog
	cacher  TrackCacher
	opts    EngineOpts
}

// NewPlaylistEngine creates a PlaylistEngine. The cacher may be nil to disable match caching.
func NewPlaylistEngine(catalog services.Catalog, cacher TrackCacher, opts EngineOpts) *PlaylistEngine {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 5
	}
	if opts.FallbackSearchLimit <= 0 {
		opts.FallbackSearchLimit = 3
	}
	if opts.Pace <= 0 {
		opts.Pace = 250 * time.Millisecond
	}
	if opts.BatchSize <= 0 || opts.BatchSize > 100 {
		opts.BatchSize = 100
	}

	return &PlaylistEngine{
		catalog: catalog,
		cacher:  cacher,
		opts:    opts,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so a slow consumer can never stall the sync loop's pacing.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// snapshot copies the outcome list for hand-off to progress consumers.
func snapshot(outcomes []TrackOutcome, current int) SyncProgress {
	copied := make([]TrackOutcome, len(outcomes))
	copy(copied, outcomes)
	return SyncProgress{Outcomes: copied, Current: current}
}

// Sync performs one full reconciliation run.
//
// The destination index is built once up front; a failure there aborts the
// whole run with no summary. Each source track is then classified in input
// order, with the index eagerly updated on every enqueue so within-run
// duplicates dedup against each other. Cancellation is honored between tracks
// and between commit batches: the summary computed so far is returned with
// ctx's error, and nothing further touches the network.
func (e *PlaylistEngine) Sync(ctx context.Context, tracks []models.SourceTrack, playlistID string, progress chan<- ProgressUpdate) (*SyncSummary, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	total := len(tracks)
	summary := &SyncSummary{Total: total, Outcomes: make([]TrackOutcome, total)}
	for i, track := range tracks {
		summary.Outcomes[i] = TrackOutcome{Source: track, Status: StatusPending}
	}

	e.sendProgress(progress, buildIndexUpdate(playlistID))
	index, err := BuildDestinationIndex(ctx, e.catalog, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to build destination index: %w", err)
	}
	e.sendProgress(progress, indexBuiltUpdate(index.Len()))

	limiter := rate.NewLimiter(rate.Every(e.opts.Pace), 1)

	var queue []string
	for i := range summary.Outcomes {
		if ctx.Err() != nil {
			summary.recount()
			return summary, ctx.Err()
		}

		outcome := &summary.Outcomes[i]
		outcome.Status = StatusSearching
		e.sendProgress(progress, searchingUpdate(i, total, outcome.Source, snapshot(summary.Outcomes, i)))

		e.classify(ctx, index, outcome, &queue)
		e.sendProgress(progress, resolvedUpdate(i, total, *outcome, snapshot(summary.Outcomes, i)))

		// Fixed pacing after every track regardless of outcome.
		if err := limiter.Wait(ctx); err != nil {
			summary.recount()
			return summary, err
		}
	}

	summary.recount()

	if e.opts.DryRun {
		e.sendProgress(progress, completeUpdate(summary))
		return summary, nil
	}

	totalBatches := (len(queue) + e.opts.BatchSize - 1) / e.opts.BatchSize
	for start, batch := 0, 1; start < len(queue); start, batch = start+e.opts.BatchSize, batch+1 {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		end := min(start+e.opts.BatchSize, len(queue))
		e.sendProgress(progress, commitUpdate(batch, totalBatches, end-start))

		if err := e.catalog.AddPlaylistItems(ctx, playlistID, queue[start:end]); err != nil {
			return summary, fmt.Errorf("%w: batch %d/%d: %v", shared.ErrCommitFailed, batch, totalBatches, err)
		}
	}

	summary.Committed = true
	e.sendProgress(progress, completeUpdate(summary))
	return summary, nil
}

// classify resolves a single source track and applies the dedup policy,
// leaving the outcome in a terminal state.
func (e *PlaylistEngine) classify(ctx context.Context, index *DestinationIndex, outcome *TrackOutcome, queue *[]string) {
	match := e.lookupCached(outcome.Source)
	if match == nil {
		resolved, err := e.matchTrack(ctx, outcome.Source.Title, outcome.Source.Artist)
		if err != nil || resolved == nil {
			// Matcher failure degrades this track only; the run continues.
			outcome.Status = StatusNotFound
			return
		}
		match = resolved
		if e.cacher != nil {
			e.cacher.CacheMatch(outcome.Source, *match)
		}
	}

	if index.HasID(match.ID) {
		outcome.Status = StatusSkipped
		outcome.Matched = match
		return
	}

	key := shared.TrackKey(match.Title, match.Artist)
	if index.HasKey(key) {
		outcome.Status = StatusSkipped
		outcome.Matched = match
		return
	}

	outcome.Status = StatusFound
	outcome.Matched = match
	*queue = append(*queue, match.URI)
	// Eager insert so a later source track resolving to the same catalog
	// track is skipped rather than queued twice.
	index.Add(match.ID, key)
}

func (e *PlaylistEngine) lookupCached(source models.SourceTrack) *models.Track {
	if e.cacher == nil {
		return nil
	}
	match, err := e.cacher.LookupMatch(source.Title, source.Artist)
	if err != nil {
		return nil
	}
	return match
}
