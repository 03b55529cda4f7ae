// package services defines interfaces for interacting with the destination music catalog over HTTP
package services

import (
	"context"

	"github.com/desertthunder/amx/internal/models"
)

// PlaylistPage is one page of a playlist's current contents.
type PlaylistPage struct {
	// Items holds the page's tracks in playlist order. Entries without a
	// catalog id (locally-added files) are included as-is; consumers decide
	// whether to skip them.
	Items []models.Track
	// Next reports whether the server supplied a cursor to a further page.
	Next bool
}

// Catalog is the destination-catalog surface the sync engine consumes.
//
// Implementations make sequential remote calls; rate limiting and retry policy
// are handled inside the implementation, transparently to callers.
type Catalog interface {
	// PlaylistPage fetches a single page of the playlist's items starting at offset.
	PlaylistPage(ctx context.Context, playlistID string, offset int) (*PlaylistPage, error)

	// SearchTracks searches the catalog with a raw query string, returning at most limit candidates in relevance order.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// AddPlaylistItems appends the given track URIs to the playlist. At most 100 URIs per call.
	AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error

	// Name returns the service name for display (e.g. "Spotify").
	Name() string
}

// PlaylistManager extends Catalog with the playlist management operations the CLI uses.
type PlaylistManager interface {
	Catalog

	// GetPlaylists retrieves all of the authenticated user's playlists.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a single playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// CreatePlaylist creates a new, empty playlist for the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)
}
