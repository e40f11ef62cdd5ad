package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/services"
	"github.com/ytmigrate/ytmigrate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PickView ViewState = iota
	ConfirmView
	MigrateView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       services.ResourceClient
	engine       tasks.Engine
	userID       string
	width        int
	height       int
	pickList     list.Model
	playlists    []models.Playlist
	selected     map[string]bool
	progressChan chan tasks.ProgressUpdate
	doneChan     chan migrationDoneMsg
	progress     tasks.ProgressUpdate
	summary      *models.Summary
	err          error
	help         help.Model
	keys         keyMap
}

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type progressUpdateMsg tasks.ProgressUpdate

type migrationDoneMsg struct {
	summary *models.Summary
	err     error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source services.ResourceClient, engine tasks.Engine, userID string) *Model {
	return &Model{
		ctx:      ctx,
		view:     PickView,
		source:   source,
		engine:   engine,
		userID:   userID,
		selected: make(map[string]bool),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the source account's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.pickList.Width() == 0 {
			m.pickList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PickView:
			return m.handlePickKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = pickItem{playlist: pl}
		}
		m.pickList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.pickList.Title = "Source Playlists"
		m.pickList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case migrationDoneMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	if m.view == PickView {
		var cmd tea.Cmd
		m.pickList, cmd = m.pickList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PickView:
		return m.renderPick()
	case ConfirmView:
		return m.renderConfirm()
	case MigrateView:
		return m.renderMigrate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		return m, m.toggleCurrent()
	case "a":
		return m, m.toggleAll()
	case "enter":
		if m.selectionCount() > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pickList, cmd = m.pickList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PickView
		return m, nil
	case "y":
		m.view = MigrateView
		return m, m.startMigration()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

// toggleCurrent flips the checkbox of the highlighted playlist.
func (m *Model) toggleCurrent() tea.Cmd {
	item, ok := m.pickList.SelectedItem().(pickItem)
	if !ok {
		return nil
	}
	m.selected[item.playlist.PlaylistID] = !m.selected[item.playlist.PlaylistID]
	item.selected = m.selected[item.playlist.PlaylistID]
	return m.pickList.SetItem(m.pickList.Index(), item)
}

// toggleAll selects every playlist, or clears the selection if all are picked.
func (m *Model) toggleAll() tea.Cmd {
	pickAll := m.selectionCount() < len(m.playlists)
	var cmds []tea.Cmd
	for i, pl := range m.playlists {
		m.selected[pl.PlaylistID] = pickAll
		cmds = append(cmds, m.pickList.SetItem(i, pickItem{playlist: pl, selected: pickAll}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) selectionCount() int {
	count := 0
	for _, on := range m.selected {
		if on {
			count++
		}
	}
	return count
}

// selection returns the picked playlists in source order.
func (m *Model) selection() []models.Playlist {
	var picked []models.Playlist
	for _, pl := range m.playlists {
		if m.selected[pl.PlaylistID] {
			picked = append(picked, pl)
		}
	}
	return picked
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.ListPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startMigration() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan
	selected := m.selection()

	done := make(chan migrationDoneMsg, 1)
	go func() {
		summary, err := m.engine.Migrate(m.ctx, progress, m.userID, selected)
		done <- migrationDoneMsg{summary: summary, err: err}
		close(progress)
	}()
	m.doneChan = done

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.doneChan
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPick() string {
	status := fmt.Sprintf("%d of %d selected", m.selectionCount(), len(m.playlists))
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n%s", m.pickList.View(), styles.help.Render(status), helpView)
}

func (m *Model) renderConfirm() string {
	picked := m.selection()
	title := styles.title.Render(fmt.Sprintf("Migrate %d playlists to the destination account?", len(picked)))

	var lines string
	for _, pl := range picked {
		lines += fmt.Sprintf("  • %s\n", pl.Title)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, lines, helpView)
}

func (m *Model) renderMigrate() string {
	title := styles.title.Render("Migrating Playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchItems:
		phase = fmt.Sprintf("Mirroring source playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreateDestination, tasks.Remap:
		phase = fmt.Sprintf("Creating destination playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.MigrateItems:
		phase = fmt.Sprintf("Copying items (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Migration failed: %v\n\nPress q to quit", m.err))
	}

	if m.summary == nil {
		return styles.err.Render("No summary available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Migration Complete")
	info := fmt.Sprintf(
		"\nPlaylists: %d succeeded, %d failed\nItems: %d succeeded, %d failed",
		m.summary.SucceededPlaylists,
		m.summary.FailedPlaylists,
		m.summary.SucceededItems,
		m.summary.FailedItems,
	)

	var failed string
	for _, d := range m.summary.Details {
		if d.Status == models.StatusFailed {
			failed += fmt.Sprintf("\n  • %s: %s", d.Title, d.Reason)
		}
	}
	if failed != "" {
		failed = fmt.Sprintf("\n\n%s%s", styles.warn.Render("Failures:"), failed)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
