package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
)

// TrackCacheAdapter implements tasks.TrackCacher using TrackRepository.
//
// Lookups key on the normalized match key of the source title/artist pair.
// Duplicate stores are silently ignored (UNIQUE constraint on match_key).
type TrackCacheAdapter struct {
	repo    *TrackRepository
	service string
}

// NewTrackCacheAdapter creates a TrackCacheAdapter recording matches for the named service
func NewTrackCacheAdapter(repo *TrackRepository, service string) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo, service: service}
}

// LookupMatch returns the previously resolved catalog track for a source
// title/artist pair, or (nil, nil) on a cache miss.
func (a *TrackCacheAdapter) LookupMatch(title, artist string) (*models.Track, error) {
	cached, err := a.repo.GetByMatchKey(shared.TrackKey(title, artist))
	if err != nil {
		if errors.Is(err, shared.ErrTrackNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if cached.Service != a.service {
		return nil, nil
	}

	match := cached.Match
	return &match, nil
}

// CacheMatch persists a fresh resolution.
// Returns nil when the match key is already cached.
func (a *TrackCacheAdapter) CacheMatch(source models.SourceTrack, match models.Track) error {
	cached := models.NewCachedMatch(shared.TrackKey(source.Title, source.Artist), a.service, source, match)

	if err := a.repo.Create(cached); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache match: %w", err)
	}

	return nil
}
