package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"github.com/desertthunder/amx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for playlist syncing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/amx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	cacher, db := r.openCache()
	if db != nil {
		defer db.Close()
	}

	engine := tasks.NewPlaylistEngine(spotify, cacher, r.engineOpts(false))

	model := ui.NewModel(ctx, r.extractor, engine, cmd.String("playlist-id"), cmd.String("url"))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
