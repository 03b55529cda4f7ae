// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist syncing:
//  1. [URLInputView] : Enter an Apple Music playlist URL
//  2. [PreviewView] : Browse the extracted tracks before syncing
//  3. [ConfirmView] : Confirm the sync operation
//  4. [SyncView] : Monitor real-time progress updates
//  5. [ResultView] : Display per-track outcomes and counts
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
