package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/extract"
	"github.com/desertthunder/amx/internal/repositories"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	extractor  extract.Extractor
	spotify    services.PlaylistManager
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Extractor  extract.Extractor
	Spotify    services.PlaylistManager
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.NewAppleMusicExtractor(opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		extractor:  opts.Extractor,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to redirect to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// spotifyService returns the configured Spotify client, constructing it on
// first use from the persisted credentials.
func (r *Runner) spotifyService() (services.PlaylistManager, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client credentials not set, run 'amx setup' and edit %s", shared.ErrMissingCredentials, r.configPath)
	}

	token := creds.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run 'amx auth login' first", shared.ErrNotAuthenticated)
	}

	oauthConfig := services.NewSpotifyOAuthConfig(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
	provider := services.NewOAuthCredentials(oauthConfig, token, r.saveToken)

	r.spotify = services.NewSpotifyService(provider, services.SpotifyOpts{
		HTTPClient:        r.httpClient,
		RetryAfterDefault: time.Duration(r.config.Sync.RetryAfterDefaultS) * time.Second,
		MaxRateRetries:    r.config.Sync.MaxRateRetries,
		PageSize:          r.config.Sync.PageSize,
	})
	return r.spotify, nil
}

// saveToken persists a refreshed token back to the config file.
func (r *Runner) saveToken(token *oauth2.Token) error {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	return shared.SaveConfig(r.configPath, r.config)
}

// engineOpts maps the sync section of the config onto engine knobs.
func (r *Runner) engineOpts(dryRun bool) tasks.EngineOpts {
	return tasks.EngineOpts{
		SearchLimit:         r.config.Sync.SearchLimit,
		FallbackSearchLimit: r.config.Sync.FallbackSearchLimit,
		Pace:                time.Duration(r.config.Sync.PaceMS) * time.Millisecond,
		BatchSize:           r.config.Sync.BatchSize,
		DryRun:              dryRun,
	}
}

// openCache opens the match cache database and wraps it as a [tasks.TrackCacher].
// A missing or broken database degrades to a nil cacher rather than failing the run.
func (r *Runner) openCache() (tasks.TrackCacher, *sql.DB) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		r.logger.Warn("match cache unavailable", "error", err)
		return nil, nil
	}

	if err := shared.RunMigrations(db); err != nil {
		r.logger.Warn("match cache migrations failed", "error", err)
		db.Close()
		return nil, nil
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	repo := repositories.NewTrackRepository(db)
	return repositories.NewTrackCacheAdapter(repo, "spotify"), db
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
