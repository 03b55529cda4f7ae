// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/services"
)

// MockCatalog is a configurable test double for [services.PlaylistManager].
// Unset function fields fall back to empty results.
type MockCatalog struct {
	PlaylistPageFunc     func(ctx context.Context, playlistID string, offset int) (*services.PlaylistPage, error)
	SearchTracksFunc     func(ctx context.Context, query string, limit int) ([]models.Track, error)
	AddPlaylistItemsFunc func(ctx context.Context, playlistID string, uris []string) error
	GetPlaylistsFunc     func(ctx context.Context) ([]models.Playlist, error)
	GetPlaylistFunc      func(ctx context.Context, playlistID string) (*models.Playlist, error)
	CreatePlaylistFunc   func(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// Added accumulates every URI passed to AddPlaylistItems, one slice per
	// call, so tests can assert batch boundaries.
	Added [][]string
}

func (m *MockCatalog) PlaylistPage(ctx context.Context, playlistID string, offset int) (*services.PlaylistPage, error) {
	if m.PlaylistPageFunc != nil {
		return m.PlaylistPageFunc(ctx, playlistID, offset)
	}
	return &services.PlaylistPage{}, nil
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if m.SearchTracksFunc != nil {
		return m.SearchTracksFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockCatalog) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	batch := make([]string, len(uris))
	copy(batch, uris)
	m.Added = append(m.Added, batch)
	if m.AddPlaylistItemsFunc != nil {
		return m.AddPlaylistItemsFunc(ctx, playlistID, uris)
	}
	return nil
}

func (m *MockCatalog) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.GetPlaylistsFunc != nil {
		return m.GetPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockCatalog) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.GetPlaylistFunc != nil {
		return m.GetPlaylistFunc(ctx, playlistID)
	}
	return &models.Playlist{ID: playlistID}, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description, public)
	}
	return &models.Playlist{ID: "created", Name: name, Description: description, Public: public}, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
