package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/server"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the OAuth2 authorization-code flow against Spotify.
//
// A loopback server on the configured port catches the redirect; the exchanged
// tokens are written back to the config file for later runs.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: set client_id and client_secret in %s first", shared.ErrMissingCredentials, r.configPath)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthConfig := services.NewSpotifyOAuthConfig(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n\n%s\n\n", authURL)
	} else {
		r.logger.Info("opening browser for authorization")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL in your browser:\n\n%s\n\n", authURL)
		}
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	callback := server.NewCallbackServer(oauthConfig, state, r.config.Server.Port, r.logger)
	token, err := callback.Wait(ctx, timeout)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	r.logger.Info("authentication successful", "expiry", token.Expiry)
	return r.writePlain("✓ Authenticated with Spotify\nTokens saved to %s\n", r.configPath)
}

// AuthStatus checks whether saved credentials still reach the Spotify API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService()
	if err != nil {
		r.writePlain("✗ Not authenticated: %v\n", err)
		return nil
	}

	spotify, ok := svc.(*services.SpotifyService)
	if !ok {
		return r.writePlain("✓ Spotify service configured\n")
	}

	profile, err := spotify.UserProfile(ctx)
	if err != nil {
		r.writePlain("✗ Token check failed: %v\n", err)
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s (%s)\n", profile.DisplayName, profile.ID)
	if !r.config.Credentials.Spotify.TokenExpiry.IsZero() {
		r.writePlain("Token expiry: %s\n", r.config.Credentials.Spotify.TokenExpiry.Format(time.RFC3339))
	}
	return nil
}

// AuthLogout discards the saved tokens, keeping the client credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.config.Credentials.Spotify.AccessToken = ""
	r.config.Credentials.Spotify.RefreshToken = ""
	r.config.Credentials.Spotify.TokenExpiry = time.Time{}
	r.spotify = nil

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return r.writePlain("✓ Tokens discarded\n")
}
