// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for moving playlists between accounts:
//  1. [PickView] : Browse the source account's playlists and toggle a selection
//  2. [ConfirmView] : Confirm the migration
//  3. [MigrateView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-resource outcomes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the MigrationEngine, providing
// non-blocking status reporting during the run.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
