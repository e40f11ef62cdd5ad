package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/ytmigrate/ytmigrate/internal/shared"
	"github.com/ytmigrate/ytmigrate/internal/ui"
)

// TUI launches the interactive terminal UI for picking and migrating playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/ytmigrate-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	source, err := r.resourceClient(ctx, accountSource)
	if err != nil {
		return err
	}
	dest, err := r.resourceClient(ctx, accountDest)
	if err != nil {
		return err
	}
	engine := r.buildEngine(db, source, dest)

	model := ui.NewModel(ctx, source, engine, userID)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
