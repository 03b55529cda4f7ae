package ui

import (
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/tasks"
)

// extractedMsg carries the result of scraping the source playlist page.
type extractedMsg struct {
	playlist *models.SourcePlaylist
	err      error
}

// progressMsg wraps one engine progress update.
type progressMsg tasks.ProgressUpdate

// syncCompleteMsg signals the end of a sync run.
type syncCompleteMsg struct {
	summary *tasks.SyncSummary
	err     error
}
