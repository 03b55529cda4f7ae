package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// matchTrack resolves a source title/artist pair to a catalog candidate.
//
// Tier 1 issues a field-scoped query and scans the bounded candidate set for
// one whose normalized title and artist each stand in a bidirectional
// substring relation with the source's; candidates are taken in remote
// relevance order and never re-ranked. A non-empty result set with no
// satisfying candidate falls back to the top result. Tier 2, attempted only
// when tier 1 returns zero candidates, issues a free-text query and takes the
// top result.
//
// Returns (nil, nil) when both tiers come up empty. Transport errors propagate;
// the caller degrades that single track to not found.
func (e *PlaylistEngine) matchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	candidates, err := e.catalog.SearchTracks(ctx, query, e.opts.SearchLimit)
	if err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		normTitle := shared.Normalize(title)
		normArtist := shared.Normalize(artist)

		for _, candidate := range candidates {
			if eitherContains(normTitle, shared.Normalize(candidate.Title)) &&
				eitherContains(normArtist, shared.Normalize(candidate.Artist)) {
				return &candidate, nil
			}
		}

		// No strong match; trust the catalog's top-ranked result.
		top := candidates[0]
		return &top, nil
	}

	candidates, err = e.catalog.SearchTracks(ctx, fmt.Sprintf("%s %s", title, artist), e.opts.FallbackSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	top := candidates[0]
	return &top, nil
}

// eitherContains reports whether either normalized string contains the other.
func eitherContains(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
