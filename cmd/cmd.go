// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, spotifyCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configFlag is shared by every command that reads config.toml.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles initial configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the match cache database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles Spotify authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the OAuth callback",
						Value: 0,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard saved Spotify tokens",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// syncCommand handles playlist sync operations.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync an Apple Music playlist to Spotify",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Extract, match, and add missing tracks to a Spotify playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "playlist-id",
						Usage: "Destination Spotify playlist ID",
					},
					&cli.StringFlag{
						Name:  "create",
						Usage: "Create a new destination playlist with this name",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make a created playlist public",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Classify every track but commit nothing",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Skip the local match cache",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a report file (csv, markdown, text, json)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Base path for the report file",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the summary as JSON",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "preview",
				Usage: "Extract a playlist page and print its tracks without touching Spotify",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the track list as CSV to this path",
					},
				},
				Action: r.SyncPreview,
			},
		},
	}
}

// spotifyCommand handles direct Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List the authenticated user's playlists",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
			{
				Name:  "playlist",
				Usage: "Show a playlist's metadata and contents",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SpotifyPlaylist,
			},
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public",
					},
				},
				Action: r.SpotifyCreate,
			},
		},
	}
}

// cacheCommand manages the local match cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the local match cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached matches",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by source artist",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "purge",
				Usage:  "Remove every cached match",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CachePurge,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist syncing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive TUI",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "playlist-id",
				Usage:    "Destination Spotify playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Apple Music playlist URL to extract immediately",
			},
		},
		Action: r.TUI,
	}
}
