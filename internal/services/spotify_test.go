package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/amx/internal/shared"
)

func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewSpotifyService(NewStaticCredentials("test-token"), SpotifyOpts{
		BaseURL:           server.URL,
		RetryAfterDefault: 10 * time.Millisecond,
	})
	return svc, server
}

func TestSearchTracks(t *testing.T) {
	var gotQuery, gotAuth string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"tracks":{"items":[
			{"id":"t1","name":"Shape of You","uri":"spotify:track:t1","artists":[{"name":"Ed Sheeran"}]},
			{"id":"t2","name":"Shape of You (Acoustic)","uri":"spotify:track:t2","artists":[{"name":"Someone Else"}]}
		]}}`)
	}))

	tracks, err := svc.SearchTracks(context.Background(), "track:Shape of You artist:Ed Sheeran", 5)
	if err != nil {
		t.Fatalf("SearchTracks() error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected Authorization header: %s", gotAuth)
	}
	if gotQuery != "track:Shape of You artist:Ed Sheeran" {
		t.Errorf("unexpected query: %s", gotQuery)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "t1" || tracks[0].Artist != "Ed Sheeran" || tracks[0].URI != "spotify:track:t1" {
		t.Errorf("unexpected first track: %+v", tracks[0])
	}
}

func TestPlaylistPagePagination(t *testing.T) {
	var offsets []string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		if offset == "0" {
			fmt.Fprint(w, `{"items":[{"track":{"id":"a","name":"A","uri":"spotify:track:a","artists":[{"name":"X"}]}}],"next":"https://api.spotify.com/v1/next-page"}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"track":{"id":"","name":"Local File","uri":"","artists":[]}}],"next":null}`)
	}))

	first, err := svc.PlaylistPage(context.Background(), "pl1", 0)
	if err != nil {
		t.Fatalf("PlaylistPage() error: %v", err)
	}
	if !first.Next {
		t.Error("expected first page to report a next cursor")
	}
	if len(first.Items) != 1 || first.Items[0].ID != "a" {
		t.Errorf("unexpected first page items: %+v", first.Items)
	}

	second, err := svc.PlaylistPage(context.Background(), "pl1", 1)
	if err != nil {
		t.Fatalf("PlaylistPage() error: %v", err)
	}
	if second.Next {
		t.Error("expected final page to report no next cursor")
	}
	// Local files come back with no catalog id; the caller skips them.
	if len(second.Items) != 1 || second.Items[0].ID != "" {
		t.Errorf("unexpected second page items: %+v", second.Items)
	}

	if len(offsets) != 2 || offsets[0] != "0" || offsets[1] != "1" {
		t.Errorf("unexpected offsets requested: %v", offsets)
	}
}

func TestDoRequestRateLimitRetry(t *testing.T) {
	calls := 0
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":"me","display_name":"Tester"}`)
	}))

	user, err := svc.UserProfile(context.Background())
	if err != nil {
		t.Fatalf("UserProfile() error after 429: %v", err)
	}
	if user.DisplayName != "Tester" {
		t.Errorf("unexpected profile: %+v", user)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls (429 then success), got %d", calls)
	}
}

func TestDoRequestRateLimitCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewSpotifyService(NewStaticCredentials("tok"), SpotifyOpts{
		BaseURL:           server.URL,
		RetryAfterDefault: time.Millisecond,
		MaxRateRetries:    2,
	})

	_, err := svc.UserProfile(context.Background())
	if !errors.Is(err, shared.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited with a retry cap, got %v", err)
	}
}

func TestDoRequestUnauthorized(t *testing.T) {
	creds := NewStaticCredentials("stale-token")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewSpotifyService(creds, SpotifyOpts{BaseURL: server.URL})

	_, err := svc.UserProfile(context.Background())
	if !errors.Is(err, shared.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// 401 invalidates the cached credentials.
	if _, err := creds.Token(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected credentials to be invalidated, got %v", err)
	}
}

func TestDoRequestHardFailure(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	_, err := svc.UserProfile(context.Background())
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Errorf("expected ErrAPIRequest for 500, got %v", err)
	}
}

func TestAddPlaylistItemsValidation(t *testing.T) {
	svc := NewSpotifyService(NewStaticCredentials("tok"), SpotifyOpts{})

	if err := svc.AddPlaylistItems(context.Background(), "pl", nil); err == nil {
		t.Error("expected error for empty URI list")
	}

	uris := make([]string, 101)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:%d", i)
	}
	if err := svc.AddPlaylistItems(context.Background(), "pl", uris); err == nil {
		t.Error("expected error for more than 100 URIs")
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tc := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{name: "absent header uses default", header: "", want: 5 * time.Second},
		{name: "seconds value", header: "12", want: 12 * time.Second},
		{name: "malformed value uses default", header: "soon", want: 5 * time.Second},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			if got := retryAfter(resp, 5*time.Second); got != tt.want {
				t.Errorf("retryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticCredentials(t *testing.T) {
	creds := NewStaticCredentials("abc")
	tok, err := creds.Token(context.Background())
	if err != nil || tok != "abc" {
		t.Errorf("Token() = %q, %v", tok, err)
	}

	creds.Invalidate()
	if _, err := creds.Token(context.Background()); err == nil {
		t.Error("expected error after Invalidate")
	}
}
