// Package extract pulls title/artist pairs out of a public Apple Music playlist page.
//
// The sync engine treats extraction as an opaque collaborator: it consumes an
// [Extractor] and never sees HTML. Apple Music embeds playlist data as JSON in
// script tags; the page structure changes without notice, so the extractor
// tries three strategies in order and returns whatever the first one yields.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// browserUserAgent makes the request look like an ordinary browser; Apple Music
// serves a stripped page to unknown clients.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// intentBlobRe locates the serialized JSON arrays Apple Music embeds in script tags.
var intentBlobRe = regexp.MustCompile(`(?s)\[\{"intent".*?\}\]`)

// Extractor resolves a playlist URL into a named, ordered track list.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.SourcePlaylist, error)
}

// AppleMusicExtractor implements [Extractor] for public Apple Music playlist pages.
type AppleMusicExtractor struct {
	httpClient *http.Client
}

// NewAppleMusicExtractor creates an extractor. A nil client defaults to [http.DefaultClient].
func NewAppleMusicExtractor(client *http.Client) *AppleMusicExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &AppleMusicExtractor{httpClient: client}
}

// Extract fetches the playlist page and parses out its tracks and name.
//
// Strategies, in order: serialized script-tag JSON, JSON-LD structured data,
// meta tags. Returns [shared.ErrExtractFailed] when every strategy comes up empty.
func (e *AppleMusicExtractor) Extract(ctx context.Context, url string) (*models.SourcePlaylist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: playlist page returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return ParseDocument(doc)
}

// ParseDocument runs the extraction strategies over an already-parsed page.
func ParseDocument(doc *goquery.Document) (*models.SourcePlaylist, error) {
	playlist := &models.SourcePlaylist{Name: playlistName(doc)}

	for _, strategy := range []func(*goquery.Document) []models.SourceTrack{
		fromSerializedData,
		fromJSONLD,
		fromMetaTags,
	} {
		if tracks := strategy(doc); len(tracks) > 0 {
			playlist.Tracks = tracks
			return playlist, nil
		}
	}

	return nil, fmt.Errorf("%w: the page structure may have changed", shared.ErrExtractFailed)
}

// playlistName pulls the playlist title from og:title, JSON-LD, or the page title.
func playlistName(doc *goquery.Document) string {
	if name, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && name != "" {
		return name
	}

	name := ""
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if data["@type"] == "MusicPlaylist" {
			if n, ok := data["name"].(string); ok {
				name = n
				return false
			}
		}
		return true
	})
	if name != "" {
		return name
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// fromSerializedData extracts tracks from the serialized JSON blobs Apple Music
// embeds in plain script tags.
func fromSerializedData(doc *goquery.Document) []models.SourceTrack {
	var tracks []models.SourceTrack

	doc.Find("script:not([type]), script[type='text/javascript'], script[type='application/json']").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if text == "" {
			return
		}

		var blobs []any

		for _, match := range intentBlobRe.FindAllString(text, -1) {
			var blob any
			if err := json.Unmarshal([]byte(match), &blob); err == nil {
				blobs = append(blobs, blob)
			}
		}

		if len(blobs) == 0 {
			stripped := strings.TrimSpace(text)
			if strings.HasPrefix(stripped, "[") || strings.HasPrefix(stripped, "{") {
				var blob any
				if err := json.Unmarshal([]byte(stripped), &blob); err == nil {
					blobs = append(blobs, blob)
				}
			}
		}

		for _, blob := range blobs {
			walkForTracks(blob, &tracks)
		}
	})

	return tracks
}

// walkForTracks recursively walks a decoded JSON structure collecting track-lockup items.
func walkForTracks(node any, tracks *[]models.SourceTrack) {
	switch v := node.(type) {
	case map[string]any:
		id, _ := v["id"].(string)
		title, _ := v["title"].(string)
		itemKind, _ := v["itemKind"].(string)
		subtitleLinks, hasSubtitles := v["subtitleLinks"].([]any)

		if title != "" && ((strings.Contains(id, "track-lockup") && hasSubtitles) || itemKind == "trackLockup") {
			artist := ""
			if len(subtitleLinks) > 0 {
				if link, ok := subtitleLinks[0].(map[string]any); ok {
					artist, _ = link["title"].(string)
				}
			}
			*tracks = append(*tracks, models.SourceTrack{Title: title, Artist: artist})
			return // don't recurse into a matched track
		}

		for _, value := range v {
			walkForTracks(value, tracks)
		}
	case []any:
		for _, item := range v {
			walkForTracks(item, tracks)
		}
	}
}

// fromJSONLD extracts tracks from JSON-LD MusicPlaylist structured data.
func fromJSONLD(doc *goquery.Document) []models.SourceTrack {
	var tracks []models.SourceTrack

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		if data["@type"] != "MusicPlaylist" {
			return
		}

		items, _ := data["track"].([]any)
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := item["name"].(string)
			if name == "" {
				continue
			}

			artist := ""
			switch by := item["byArtist"].(type) {
			case map[string]any:
				artist, _ = by["name"].(string)
			case []any:
				if len(by) > 0 {
					if first, ok := by[0].(map[string]any); ok {
						artist, _ = first["name"].(string)
					}
				}
			}

			tracks = append(tracks, models.SourceTrack{Title: name, Artist: artist})
		}
	})

	return tracks
}

// fromMetaTags is the last-resort strategy: music:song meta tags carry titles only.
func fromMetaTags(doc *goquery.Document) []models.SourceTrack {
	var tracks []models.SourceTrack

	doc.Find(`meta[property="music:song"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok && content != "" {
			tracks = append(tracks, models.SourceTrack{Title: content})
		}
	})

	return tracks
}
