package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
)

// DestinationIndex is a point-in-time snapshot of a playlist's contents used
// for duplicate detection, keyed both by catalog id and by normalized
// title/artist key.
//
// The index is owned by a single sync run and mutated in place as new tracks
// are queued, so duplicate source tracks within the same run dedup against
// each other too. It is not safe for concurrent use.
type DestinationIndex struct {
	ids  map[string]struct{}
	keys map[string]struct{}
}

// NewDestinationIndex returns an empty index.
func NewDestinationIndex() *DestinationIndex {
	return &DestinationIndex{
		ids:  make(map[string]struct{}),
		keys: make(map[string]struct{}),
	}
}

// HasID reports whether the catalog id is already present.
func (d *DestinationIndex) HasID(id string) bool {
	_, ok := d.ids[id]
	return ok
}

// HasKey reports whether the normalized track key is already present.
func (d *DestinationIndex) HasKey(key string) bool {
	_, ok := d.keys[key]
	return ok
}

// Add records a catalog id and its normalized key.
func (d *DestinationIndex) Add(id, key string) {
	if id != "" {
		d.ids[id] = struct{}{}
	}
	if key != "" {
		d.keys[key] = struct{}{}
	}
}

// Len returns the number of indexed catalog ids.
func (d *DestinationIndex) Len() int {
	return len(d.ids)
}

// BuildDestinationIndex pages through the playlist's current contents and
// indexes every entry with a catalog id.
//
// Pages are fetched strictly sequentially because each cursor is only known
// after the prior page returns. Entries without an id (locally-added files)
// are skipped. Any page failure fails the build; the caller treats that as
// run-fatal.
func BuildDestinationIndex(ctx context.Context, catalog services.Catalog, playlistID string) (*DestinationIndex, error) {
	index := NewDestinationIndex()

	offset := 0
	for {
		page, err := catalog.PlaylistPage(ctx, playlistID, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlist items at offset %d: %w", offset, err)
		}

		for _, track := range page.Items {
			if track.ID == "" {
				continue
			}
			index.Add(track.ID, shared.TrackKey(track.Title, track.Artist))
		}

		if !page.Next || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return index, nil
}
