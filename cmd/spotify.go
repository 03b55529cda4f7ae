package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyPlaylists lists the authenticated user's playlists.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	r.logger.Info("fetching playlists")

	playlists, err := spotify.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, playlist := range playlists {
		visibility := "private"
		if playlist.Public {
			visibility = "public"
		}
		r.writePlain("%d. %s (%d tracks, %s)\n   ID: %s\n", i+1, playlist.Name, playlist.TrackCount, visibility, playlist.ID)
	}

	return nil
}

// SpotifyPlaylist shows one playlist's metadata and contents.
func (r *Runner) SpotifyPlaylist(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	playlistID := cmd.String("id")
	r.logger.Info("fetching playlist", "id", playlistID)

	playlist, err := spotify.GetPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	var tracks []string
	offset := 0
	for {
		page, err := spotify.PlaylistPage(ctx, playlistID, offset)
		if err != nil {
			return fmt.Errorf("failed to fetch playlist items: %w", err)
		}
		for _, track := range page.Items {
			tracks = append(tracks, fmt.Sprintf("%s - %s", track.Artist, track.Title))
		}
		if !page.Next || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"playlist": playlist, "tracks": tracks}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	r.writePlain("Tracks: %d\n\n", playlist.TrackCount)
	for i, line := range tracks {
		r.writePlain("%d. %s\n", i+1, line)
	}

	return nil
}

// SpotifyCreate creates an empty playlist for the authenticated user.
func (r *Runner) SpotifyCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	r.logger.Info("creating playlist", "name", name)

	playlist, err := spotify.CreatePlaylist(ctx, name, cmd.String("description"), cmd.Bool("public"))
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	r.writePlain("✓ Created playlist '%s'\n", playlist.Name)
	r.writePlain("ID: %s\n", playlist.ID)
	return nil
}
