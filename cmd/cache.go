package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/amx/internal/repositories"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheList lists cached source→destination matches.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open match cache: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := repositories.NewTrackRepository(db)

	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}

	matches, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list cached matches: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(matches))
		for _, match := range matches {
			rows = append(rows, map[string]any{
				"match_key": match.MatchKey,
				"source":    match.Source,
				"service":   match.Service,
				"match":     match.Match,
			})
		}
		return r.writeJSON(rows, true)
	}

	r.writePlain("Cached matches: %d\n\n", len(matches))
	for i, match := range matches {
		r.writePlain("%d. %s - %s → %s (%s)\n", i+1, match.Source.Artist, match.Source.Title, match.Match.URI, match.Service)
	}

	return nil
}

// CachePurge removes every cached match.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open match cache: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	removed, err := repositories.NewTrackRepository(db).Purge()
	if err != nil {
		return err
	}

	r.logger.Info("cache purged", "removed", removed)
	return r.writePlain("✓ Removed %d cached matches\n", removed)
}
