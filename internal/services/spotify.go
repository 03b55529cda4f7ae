// Spotify API implementation of [Catalog] and [PlaylistManager]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// playlistPageSize is the API maximum for playlist item listings.
	playlistPageSize = 100
	// maxURIsPerAdd is the API maximum for a single playlist append call.
	maxURIsPerAdd = 100

	// playlistItemFields trims playlist item responses to what the dedup index needs.
	playlistItemFields = "items(track(id,name,uri,artists(name))),next"
)

// NewSpotifyOAuthConfig builds the [oauth2.Config] for the authorization-code flow.
func NewSpotifyOAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   struct {
		Name string `json:"name"`
	} `json:"album"`
	URI string `json:"uri"`
}

// spotifyPlaylistItem is a track within a playlist listing.
type spotifyPlaylistItem struct {
	Track SpotifyTrack `json:"track"`
}

// spotifyPlaylistItemsPage is one page of a playlist's items.
type spotifyPlaylistItemsPage struct {
	Items []spotifyPlaylistItem `json:"items"`
	Next  *string               `json:"next"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	URI         string            `json:"uri"`
}

// spotifyPaginatedPlaylists is a paginated response of the user's playlists.
type spotifyPaginatedPlaylists struct {
	Items []SpotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

// spotifySearchResponse wraps track search results.
type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	BaseURL           string        // API base URL, overridable for tests
	HTTPClient        *http.Client  // defaults to http.DefaultClient
	RetryAfterDefault time.Duration // wait for a 429 without a Retry-After header
	MaxRateRetries    int           // 429 retry cap, 0 = unbounded
	PageSize          int           // playlist items per page, capped at the API max
}

// SpotifyService implements [PlaylistManager] against the Spotify Web API.
//
// Every request shares the same cross-cutting policy: bearer auth from the
// credential provider, wait-and-retry on 429 honoring Retry-After, token
// invalidation on 401, and hard failure on any other non-2xx status.
type SpotifyService struct {
	baseURL           string
	creds             CredentialProvider
	httpClient        *http.Client
	retryAfterDefault time.Duration
	maxRateRetries    int
	pageSize          int
}

// NewSpotifyService creates a Spotify service using the given credential provider.
func NewSpotifyService(creds CredentialProvider, opts SpotifyOpts) *SpotifyService {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RetryAfterDefault <= 0 {
		opts.RetryAfterDefault = 5 * time.Second
	}
	if opts.PageSize <= 0 || opts.PageSize > playlistPageSize {
		opts.PageSize = playlistPageSize
	}

	return &SpotifyService{
		baseURL:           opts.BaseURL,
		creds:             creds,
		httpClient:        opts.HTTPClient,
		retryAfterDefault: opts.RetryAfterDefault,
		maxRateRetries:    opts.MaxRateRetries,
		pageSize:          opts.PageSize,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request to the Spotify API.
//
// On 429 it sleeps for the server-supplied Retry-After (or the configured
// default when absent) and reissues the identical request; with a zero retry
// cap this repeats indefinitely, so rate limiting never surfaces to callers.
// A 401 invalidates the cached credentials and returns [shared.ErrTokenExpired].
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	rateRetries := 0
	for {
		token, err := s.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp, s.retryAfterDefault)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			rateRetries++
			if s.maxRateRetries > 0 && rateRetries > s.maxRateRetries {
				return fmt.Errorf("%w: gave up after %d retries", shared.ErrRateLimited, s.maxRateRetries)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			s.creds.Invalidate()
			return fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, snippet)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}

		return nil
	}
}

// retryAfter reads the Retry-After header in seconds, falling back to def.
func retryAfter(resp *http.Response, def time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return def
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistPage fetches one page of a playlist's items starting at offset.
//
// Responses are trimmed server-side to id/name/uri/artist fields plus the next
// cursor. Pages must be requested sequentially; the cursor is only known after
// the prior page returns.
func (s *SpotifyService) PlaylistPage(ctx context.Context, playlistID string, offset int) (*PlaylistPage, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&fields=%s",
		url.PathEscape(playlistID), s.pageSize, offset, url.QueryEscape(playlistItemFields))

	var page spotifyPlaylistItemsPage
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	result := &PlaylistPage{Next: page.Next != nil}
	for _, item := range page.Items {
		result.Items = append(result.Items, toTrack(item.Track))
	}
	return result, nil
}

// SearchTracks searches the catalog for tracks matching the raw query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 5
	}
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, toTrack(item))
	}
	return tracks, nil
}

// AddPlaylistItems appends up to 100 track URIs to the playlist.
func (s *SpotifyService) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no URIs provided", shared.ErrInvalidArgument)
	}
	if len(uris) > maxURIsPerAdd {
		return fmt.Errorf("%w: at most %d URIs per call", shared.ErrInvalidArgument, maxURIsPerAdd)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]any{"uris": uris}
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit, offset := 50, 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
		var response spotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			all = append(all, toPlaylist(sp))
		}

		if response.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// GetPlaylist retrieves a playlist's metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	pl := toPlaylist(*sp)
	return &pl, nil
}

// CreatePlaylist creates a new, empty playlist for the authenticated user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	pl := toPlaylist(created)
	return &pl, nil
}

func toTrack(t SpotifyTrack) models.Track {
	track := models.Track{
		ID:    t.ID,
		Title: t.Name,
		Album: t.Album.Name,
		URI:   t.URI,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

func toPlaylist(p SpotifyPlaylist) models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
	}
}
