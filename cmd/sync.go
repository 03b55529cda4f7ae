package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/amx/internal/formatter"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun extracts an Apple Music playlist page, matches every track against
// Spotify, and appends the missing ones to the destination playlist.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: playlist URL", shared.ErrMissingArgument)
	}

	playlistID := cmd.String("playlist-id")
	createName := cmd.String("create")
	if playlistID == "" && createName == "" {
		return fmt.Errorf("%w: either --playlist-id or --create is required", shared.ErrMissingArgument)
	}
	if playlistID != "" && createName != "" {
		return fmt.Errorf("%w: cannot specify both --playlist-id and --create", shared.ErrInvalidArgument)
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	r.logger.Info("extracting source playlist", "url", url)
	r.writePlain("📥 Extracting playlist...\n")

	playlist, err := r.extractor.Extract(ctx, url)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	r.writePlain("✓ Extracted '%s' (%d tracks)\n\n", playlist.Name, len(playlist.Tracks))

	if createName != "" {
		created, err := spotify.CreatePlaylist(ctx, createName, fmt.Sprintf("Synced from %s", url), cmd.Bool("public"))
		if err != nil {
			return fmt.Errorf("failed to create destination playlist: %w", err)
		}
		playlistID = created.ID
		r.writePlain("✓ Created playlist '%s' (%s)\n\n", created.Name, created.ID)
	}

	var cacher tasks.TrackCacher
	if !cmd.Bool("no-cache") {
		adapter, db := r.openCache()
		if db != nil {
			defer db.Close()
		}
		cacher = adapter
	}

	dryRun := cmd.Bool("dry-run")
	engine := tasks.NewPlaylistEngine(spotify, cacher, r.engineOpts(dryRun))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.BuildIndex:
				r.writePlain("📇 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.CommitBatch:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	summary, err := engine.Sync(ctx, playlist.Tracks, playlistID, progressCh)
	close(progressCh)
	<-done

	if err != nil && summary == nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}

	r.writePlain("\n")
	if dryRun {
		r.writePlainHeader("Dry Run Complete")
	} else if summary.Committed {
		r.writePlainHeader("Sync Complete!")
	} else {
		r.writePlainHeader("Sync Incomplete")
	}
	r.writePlain("Source: %s (%d tracks)\n", playlist.Name, summary.Total)
	r.writePlain("Added: %d  Skipped: %d  Not found: %d\n", summary.Added, summary.Skipped, summary.NotFound)

	if summary.NotFound > 0 {
		r.writePlain("\nNot found on Spotify:\n")
		for _, outcome := range summary.Outcomes {
			if outcome.Status == tasks.StatusNotFound {
				r.writePlain("  - %s - %s\n", outcome.Source.Artist, outcome.Source.Title)
			}
		}
	}

	if format := cmd.String("report"); format != "" {
		result, rerr := formatter.WriteReport(playlist.Name, summary, format, cmd.String("output"))
		if rerr != nil {
			return rerr
		}
		r.writePlain("\nReport written to %s\n", result.File)
	}

	return err
}

// SyncPreview extracts a playlist page and prints its tracks without touching Spotify.
func (r *Runner) SyncPreview(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: playlist URL", shared.ErrMissingArgument)
	}

	r.logger.Info("extracting source playlist", "url", url)

	playlist, err := r.extractor.Extract(ctx, url)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	r.writePlain("Tracks: %d\n\n", len(playlist.Tracks))
	for i, track := range playlist.Tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	if output := cmd.String("output"); output != "" {
		if err := writeTracksCSV(playlist, output); err != nil {
			return err
		}
		r.writePlain("\nTrack list written to %s\n", output)
	}

	return nil
}

func writeTracksCSV(playlist *models.SourcePlaylist, path string) error {
	data, err := formatter.TracksToCSV(playlist)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write track list: %w", err)
	}
	return nil
}
