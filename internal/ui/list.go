package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/tasks"
)

var (
	_ list.Item = sourceTrackItem{}
	_ list.Item = outcomeItem{}
)

// sourceTrackItem wraps [models.SourceTrack] to implement [list.Item].
type sourceTrackItem struct {
	track models.SourceTrack
}

func (i sourceTrackItem) FilterValue() string { return i.track.Title }
func (i sourceTrackItem) Title() string       { return i.track.Title }
func (i sourceTrackItem) Description() string { return i.track.Artist }

// outcomeItem wraps [tasks.TrackOutcome] to implement [list.Item].
type outcomeItem struct {
	outcome tasks.TrackOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Source.Title }
func (i outcomeItem) Title() string {
	return fmt.Sprintf("[%s] %s", i.outcome.Status, i.outcome.Source.Title)
}
func (i outcomeItem) Description() string {
	if i.outcome.Matched != nil && i.outcome.Matched.Title != i.outcome.Source.Title {
		return fmt.Sprintf("%s • matched %s", i.outcome.Source.Artist, i.outcome.Matched.Title)
	}
	return i.outcome.Source.Artist
}
