package models

import (
	"fmt"
	"time"
)

// CachedMatch is a persisted source→destination track resolution.
//
// Keyed by the normalized match key of the source title/artist pair so that
// repeat syncs of the same source list can skip the remote search entirely.
type CachedMatch struct {
	id        string
	sequence  int
	MatchKey  string
	Source    SourceTrack
	Service   string
	Match     Track
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedMatch builds a CachedMatch for the given source track and its resolved catalog track.
// The ID is assigned by the repository on Create.
func NewCachedMatch(matchKey, service string, source SourceTrack, match Track) *CachedMatch {
	now := time.Now().UTC()
	return &CachedMatch{
		MatchKey:  matchKey,
		Source:    source,
		Service:   service,
		Match:     match,
		createdAt: now,
		updatedAt: now,
	}
}

func (m *CachedMatch) ID() string           { return m.id }
func (m *CachedMatch) Sequence() int        { return m.sequence }
func (m *CachedMatch) CreatedAt() time.Time { return m.createdAt }
func (m *CachedMatch) UpdatedAt() time.Time { return m.updatedAt }

// SetID assigns the row ID. Called by the repository before insert.
func (m *CachedMatch) SetID(id string) { m.id = id }

// SetSequence assigns the human-readable sequence number.
func (m *CachedMatch) SetSequence(seq int) { m.sequence = seq }

// SetTimestamps restores persisted timestamps when scanning rows.
func (m *CachedMatch) SetTimestamps(created, updated time.Time) {
	m.createdAt = created
	m.updatedAt = updated
}

// Validate checks required fields before persistence.
func (m *CachedMatch) Validate() error {
	switch {
	case m.id == "":
		return fmt.Errorf("cached match missing id")
	case m.MatchKey == "":
		return fmt.Errorf("cached match missing match key")
	case m.Service == "":
		return fmt.Errorf("cached match missing service")
	case m.Match.ID == "" || m.Match.URI == "":
		return fmt.Errorf("cached match missing catalog track id or uri")
	}
	return nil
}
