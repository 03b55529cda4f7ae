package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	tu "github.com/desertthunder/amx/internal/testing"
)

// stubCacher is an in-memory TrackCacher keyed on "title|artist".
type stubCacher struct {
	matches map[string]*models.Track
	stored  []models.SourceTrack
	lookErr error
}

func (s *stubCacher) LookupMatch(title, artist string) (*models.Track, error) {
	if s.lookErr != nil {
		return nil, s.lookErr
	}
	return s.matches[title+"|"+artist], nil
}

func (s *stubCacher) CacheMatch(source models.SourceTrack, match models.Track) error {
	s.stored = append(s.stored, source)
	return nil
}

// catalogWith returns a MockCatalog whose destination playlist holds existing
// and whose search resolves each query to the track whose title appears in it.
func catalogWith(existing []models.Track, searchable []models.Track) *tu.MockCatalog {
	return &tu.MockCatalog{
		PlaylistPageFunc: func(ctx context.Context, playlistID string, offset int) (*services.PlaylistPage, error) {
			if offset > 0 {
				return &services.PlaylistPage{}, nil
			}
			return &services.PlaylistPage{Items: existing}, nil
		},
		SearchTracksFunc: func(ctx context.Context, query string, limit int) ([]models.Track, error) {
			for _, track := range searchable {
				if strings.Contains(query, track.Title) {
					return []models.Track{track}, nil
				}
			}
			return nil, nil
		},
	}
}

func syncOpts() EngineOpts {
	return EngineOpts{Pace: time.Millisecond}
}

func assertTerminal(t *testing.T, summary *SyncSummary) {
	t.Helper()
	for i, outcome := range summary.Outcomes {
		if !outcome.Status.Terminal() {
			t.Errorf("Outcome %d left in non-terminal status %s", i, outcome.Status)
		}
	}
	if summary.Added+summary.Skipped+summary.NotFound != summary.Total {
		t.Errorf("Counts %d+%d+%d do not cover %d tracks",
			summary.Added, summary.Skipped, summary.NotFound, summary.Total)
	}
}

func TestSync(t *testing.T) {
	t.Run("adds resolved tracks and commits", func(t *testing.T) {
		catalog := catalogWith(nil, []models.Track{
			{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
			{ID: "s2", Title: "Landslide", Artist: "Fleetwood Mac", URI: "spotify:track:s2"},
		})
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
			{Title: "Landslide", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.Added != 2 || summary.Skipped != 0 || summary.NotFound != 0 {
			t.Errorf("Expected 2 added, got %+v", summary)
		}
		if !summary.Committed {
			t.Error("Expected summary to be committed")
		}
		if len(catalog.Added) != 1 {
			t.Fatalf("Expected 1 commit batch, got %d", len(catalog.Added))
		}
		if got := catalog.Added[0]; got[0] != "spotify:track:s1" || got[1] != "spotify:track:s2" {
			t.Errorf("Expected URIs in source order, got %v", got)
		}
		assertTerminal(t, summary)
	})

	t.Run("skips a track already in the destination by id", func(t *testing.T) {
		match := models.Track{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"}
		catalog := catalogWith([]models.Track{match}, []models.Track{match})
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.Skipped != 1 || summary.Added != 0 {
			t.Errorf("Expected 1 skip, got %+v", summary)
		}
		if summary.Outcomes[0].Status != StatusSkipped {
			t.Errorf("Expected skipped status, got %s", summary.Outcomes[0].Status)
		}
		if summary.Outcomes[0].Matched == nil {
			t.Error("Expected skipped outcome to carry the matched track")
		}
		if len(catalog.Added) != 0 {
			t.Errorf("Expected no commit calls, got %v", catalog.Added)
		}
		if !summary.Committed {
			t.Error("Expected empty queue to still count as committed")
		}
	})

	t.Run("skips by normalized key when ids differ", func(t *testing.T) {
		existing := models.Track{ID: "old", Title: "Dreams (feat. Guest)", Artist: "Fleetwood Mac"}
		match := models.Track{ID: "new", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:new"}
		catalog := catalogWith([]models.Track{existing}, []models.Track{match})
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.Skipped != 1 {
			t.Errorf("Expected key-based skip, got %+v", summary)
		}
	})

	t.Run("classifies unresolvable tracks as not found", func(t *testing.T) {
		catalog := catalogWith(nil, nil)
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Obscure B-Side", Artist: "Nobody"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.NotFound != 1 {
			t.Errorf("Expected 1 not found, got %+v", summary)
		}
		if summary.Outcomes[0].Matched != nil {
			t.Error("Expected no matched track on a not found outcome")
		}
	})

	t.Run("degrades a search failure to not found without aborting", func(t *testing.T) {
		calls := 0
		catalog := catalogWith(nil, nil)
		catalog.SearchTracksFunc = func(ctx context.Context, query string, limit int) ([]models.Track, error) {
			calls++
			if strings.Contains(query, "Broken") {
				return nil, errors.New("search down")
			}
			return []models.Track{{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"}}, nil
		}
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Broken", Artist: "Nobody"},
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.NotFound != 1 || summary.Added != 1 {
			t.Errorf("Expected the run to continue past the failure, got %+v", summary)
		}
	})

	t.Run("dedups duplicate source tracks within a run", func(t *testing.T) {
		match := models.Track{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"}
		catalog := catalogWith(nil, []models.Track{match})
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.Added != 1 || summary.Skipped != 1 {
			t.Errorf("Expected second duplicate to be skipped, got %+v", summary)
		}
		if len(catalog.Added) != 1 || len(catalog.Added[0]) != 1 {
			t.Errorf("Expected a single queued URI, got %v", catalog.Added)
		}
	})

	t.Run("splits commits into batches", func(t *testing.T) {
		tracks := []models.Track{
			{ID: "s1", Title: "One", Artist: "A", URI: "spotify:track:s1"},
			{ID: "s2", Title: "Two", Artist: "A", URI: "spotify:track:s2"},
			{ID: "s3", Title: "Three", Artist: "A", URI: "spotify:track:s3"},
		}
		catalog := catalogWith(nil, tracks)
		opts := syncOpts()
		opts.BatchSize = 2
		engine := NewPlaylistEngine(catalog, nil, opts)

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "One", Artist: "A"},
			{Title: "Two", Artist: "A"},
			{Title: "Three", Artist: "A"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.Added != 3 {
			t.Errorf("Expected 3 added, got %+v", summary)
		}
		if len(catalog.Added) != 2 {
			t.Fatalf("Expected 2 batches, got %d", len(catalog.Added))
		}
		if len(catalog.Added[0]) != 2 || len(catalog.Added[1]) != 1 {
			t.Errorf("Expected batch sizes [2 1], got %v", catalog.Added)
		}
	})

	t.Run("dry run classifies without committing", func(t *testing.T) {
		catalog := catalogWith(nil, []models.Track{
			{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
		})
		opts := syncOpts()
		opts.DryRun = true
		engine := NewPlaylistEngine(catalog, nil, opts)

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if summary.Added != 1 {
			t.Errorf("Expected classification to run, got %+v", summary)
		}
		if summary.Committed {
			t.Error("Expected dry run summary to be uncommitted")
		}
		if len(catalog.Added) != 0 {
			t.Errorf("Expected no commit calls, got %v", catalog.Added)
		}
	})

	t.Run("returns the summary alongside a commit failure", func(t *testing.T) {
		catalog := catalogWith(nil, []models.Track{
			{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
		})
		catalog.AddPlaylistItemsFunc = func(ctx context.Context, playlistID string, uris []string) error {
			return errors.New("insufficient scope")
		}
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if !errors.Is(err, shared.ErrCommitFailed) {
			t.Fatalf("Expected ErrCommitFailed, got %v", err)
		}
		if summary == nil {
			t.Fatal("Expected summary despite commit failure")
		}
		if summary.Committed {
			t.Error("Expected failed commit to leave Committed false")
		}
		if summary.Added != 1 {
			t.Errorf("Expected classification counts to survive, got %+v", summary)
		}
	})

	t.Run("aborts with a partial summary on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		catalog := catalogWith(nil, nil)
		catalog.SearchTracksFunc = func(ctx context.Context, query string, limit int) ([]models.Track, error) {
			cancel()
			return []models.Track{{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"}}, nil
		}
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(ctx, []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
			{Title: "Landslide", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
		if summary == nil {
			t.Fatal("Expected partial summary on cancellation")
		}
		if summary.Added != 1 {
			t.Errorf("Expected the first track to be classified, got %+v", summary)
		}
		if summary.Committed {
			t.Error("Expected cancelled run to be uncommitted")
		}
		if len(catalog.Added) != 0 {
			t.Errorf("Expected no commits after cancellation, got %v", catalog.Added)
		}
	})

	t.Run("fails the run when the index cannot be built", func(t *testing.T) {
		catalog := catalogWith(nil, nil)
		catalog.PlaylistPageFunc = func(ctx context.Context, playlistID string, offset int) (*services.PlaylistPage, error) {
			return nil, errors.New("playlist gone")
		}
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err == nil {
			t.Fatal("Expected index build failure to abort the run")
		}
		if summary != nil {
			t.Errorf("Expected no summary, got %+v", summary)
		}
	})

	t.Run("serves matches from the cache before searching", func(t *testing.T) {
		searches := 0
		catalog := catalogWith(nil, nil)
		catalog.SearchTracksFunc = func(ctx context.Context, query string, limit int) ([]models.Track, error) {
			searches++
			return nil, nil
		}
		cacher := &stubCacher{matches: map[string]*models.Track{
			"Dreams|Fleetwood Mac": {ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
		}}
		engine := NewPlaylistEngine(catalog, cacher, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if searches != 0 {
			t.Errorf("Expected no searches on a cache hit, got %d", searches)
		}
		if summary.Added != 1 {
			t.Errorf("Expected cached match to be added, got %+v", summary)
		}
	})

	t.Run("stores fresh matches in the cache", func(t *testing.T) {
		catalog := catalogWith(nil, []models.Track{
			{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
		})
		cacher := &stubCacher{matches: map[string]*models.Track{}}
		engine := NewPlaylistEngine(catalog, cacher, syncOpts())

		if _, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil); err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		if len(cacher.stored) != 1 || cacher.stored[0].Title != "Dreams" {
			t.Errorf("Expected the fresh match to be cached, got %v", cacher.stored)
		}
	})

	t.Run("ignores cache lookup failures", func(t *testing.T) {
		catalog := catalogWith(nil, []models.Track{
			{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
		})
		cacher := &stubCacher{lookErr: errors.New("db locked")}
		engine := NewPlaylistEngine(catalog, cacher, syncOpts())

		summary, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", nil)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if summary.Added != 1 {
			t.Errorf("Expected cache failure to fall through to search, got %+v", summary)
		}
	})

	t.Run("emits progress updates through the whole run", func(t *testing.T) {
		catalog := catalogWith(nil, []models.Track{
			{ID: "s1", Title: "Dreams", Artist: "Fleetwood Mac", URI: "spotify:track:s1"},
		})
		engine := NewPlaylistEngine(catalog, nil, syncOpts())

		progress := make(chan ProgressUpdate, 32)
		if _, err := engine.Sync(context.Background(), []models.SourceTrack{
			{Title: "Dreams", Artist: "Fleetwood Mac"},
		}, "pl1", progress); err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		close(progress)

		seen := map[Phase]bool{}
		for update := range progress {
			seen[update.Phase] = true
			if update.Phase == SearchTracks {
				if _, ok := update.Data.(SyncProgress); !ok {
					t.Errorf("Expected SyncProgress payload, got %T", update.Data)
				}
			}
		}
		for _, phase := range []Phase{BuildIndex, SearchTracks, CommitBatch, Complete} {
			if !seen[phase] {
				t.Errorf("Expected a %s update", phase)
			}
		}
	})

	t.Run("fails without a catalog service", func(t *testing.T) {
		engine := NewPlaylistEngine(nil, nil, syncOpts())
		if _, err := engine.Sync(context.Background(), nil, "pl1", nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusSearching, "searching"},
		{StatusFound, "found"},
		{StatusNotFound, "not_found"},
		{StatusSkipped, "skipped"},
	}
	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}
