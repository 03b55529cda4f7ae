package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amx/internal/extract"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	URLInputView ViewState = iota
	PreviewView
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	extractor    extract.Extractor
	engine       tasks.SyncEngine
	playlistID   string
	width        int
	height       int
	urlInput     textinput.Model
	trackList    list.Model
	playlist     *models.SourcePlaylist
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *tasks.SyncSummary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// playlistID names the destination playlist additions go to. When initialURL
// is non-empty the URL input view is skipped and extraction starts at once.
func NewModel(ctx context.Context, extractor extract.Extractor, engine tasks.SyncEngine, playlistID, initialURL string) *Model {
	input := textinput.New()
	input.Placeholder = "https://music.apple.com/us/playlist/..."
	input.Focus()
	input.CharLimit = 512
	input.Width = 64
	input.SetValue(initialURL)

	return &Model{
		ctx:        ctx,
		view:       URLInputView,
		extractor:  extractor,
		engine:     engine,
		playlistID: playlistID,
		urlInput:   input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts extraction immediately when a URL was provided up front.
func (m *Model) Init() tea.Cmd {
	if m.urlInput.Value() != "" {
		return m.extractPlaylist(m.urlInput.Value())
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case URLInputView:
			return m.handleURLInputKeys(msg)
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case extractedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = URLInputView
			return m, nil
		}
		m.err = nil
		m.playlist = msg.playlist
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = sourceTrackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = PreviewView
		return m, nil

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		if msg.summary != nil {
			items := make([]list.Item, len(msg.summary.Outcomes))
			for i, outcome := range msg.summary.Outcomes {
				items[i] = outcomeItem{outcome: outcome}
			}
			m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.trackList.Title = "Results"
			m.trackList.SetSize(m.width-4, m.height-12)
		}
		return m, nil
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case URLInputView:
		return m.renderURLInput()
	case PreviewView:
		return m.renderPreview()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleURLInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		url := m.urlInput.Value()
		if url == "" {
			return m, nil
		}
		return m, m.extractPlaylist(url)
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = URLInputView
		return m, textinput.Blink
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PreviewView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = URLInputView
		m.playlist = nil
		m.summary = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		m.urlInput.SetValue("")
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case URLInputView:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case PreviewView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) extractPlaylist(url string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.extractor.Extract(m.ctx, url)
		return extractedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		summary, err := m.engine.Sync(m.ctx, m.playlist.Tracks, m.playlistID, progressChan)
		m.summary = summary
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressMsg(update)
	}
}

func (m *Model) renderURLInput() string {
	title := styles.title.Render("Sync an Apple Music playlist to Spotify")

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v\n", m.err))
	}

	helpView := styles.help.Render("enter: extract • esc: quit")
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.urlInput.View(), errLine, helpView)
}

func (m *Model) renderPreview() string {
	syncKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sync"))
	helpKeys := []key.Binding{syncKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' to Spotify?", m.playlist.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nDestination: %s\n", m.playlist.Name, len(m.playlist.Tracks), m.playlistID)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.BuildIndex:
		phase = "Indexing destination playlist..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CommitBatch:
		phase = fmt.Sprintf("Committing batch %d/%d...", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}

	var counts string
	if snap, ok := m.progress.Data.(tasks.SyncProgress); ok {
		var added, skipped, missed int
		for _, outcome := range snap.Outcomes {
			switch outcome.Status {
			case tasks.StatusFound:
				added++
			case tasks.StatusSkipped:
				skipped++
			case tasks.StatusNotFound:
				missed++
			}
		}
		counts = fmt.Sprintf("\n%s  %s  %s",
			styles.ok.Render(fmt.Sprintf("add %d", added)),
			styles.warn.Render(fmt.Sprintf("skip %d", skipped)),
			styles.err.Render(fmt.Sprintf("miss %d", missed)),
		)
	}

	return fmt.Sprintf("%s\n\n%s\n%s%s", title, phase, m.progress.Message, counts)
}

func (m *Model) renderResult() string {
	if m.err != nil && m.summary == nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.summary == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	if !m.summary.Committed {
		title = styles.warn.Render("Sync finished without committing")
	}

	info := fmt.Sprintf(
		"\nSource: %s (%d tracks)\nAdded: %d  Skipped: %d  Not found: %d",
		m.playlist.Name,
		m.summary.Total,
		m.summary.Added,
		m.summary.Skipped,
		m.summary.NotFound,
	)

	var errLine string
	if m.err != nil {
		errLine = fmt.Sprintf("\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s\n\n%s", title, info, errLine, m.trackList.View(), helpView)
}
