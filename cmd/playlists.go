package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/services"
	"github.com/ytmigrate/ytmigrate/internal/shared"
	"github.com/ytmigrate/ytmigrate/internal/tasks"
)

// PlaylistsList prints the playlists of the source account.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	source, err := r.resourceClient(ctx, accountSource)
	if err != nil {
		return err
	}

	r.logger.Info("listing source playlists")

	playlists, err := source.ListPlaylists(ctx)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Title)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.PlaylistID)
		r.writePlain("   Visibility: %s\n", p.PrivacyStatus)
		r.writePlain("\n")
	}

	return nil
}

// PlaylistsMigrate mirrors the selected source playlists and re-creates them
// on the destination account. --fetch-only and --create-only run one half.
func (r *Runner) PlaylistsMigrate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		return r.TUI(ctx, cmd)
	}

	userID := cmd.String("user")
	ids := cmd.StringSlice("id")
	all := cmd.Bool("all")
	fetchOnly := cmd.Bool("fetch-only")
	createOnly := cmd.Bool("create-only")

	if fetchOnly && createOnly {
		return fmt.Errorf("%w: cannot combine --fetch-only and --create-only", shared.ErrInvalidArgument)
	}
	if !createOnly && len(ids) == 0 && !all {
		return fmt.Errorf("%w: pass --id at least once or --all", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	sourceClient, destClient := r.clientsFor(ctx, fetchOnly, createOnly)
	if sourceClient.err != nil {
		return sourceClient.err
	}
	if destClient.err != nil {
		return destClient.err
	}
	engine := r.buildEngine(db, sourceClient.client, destClient.client)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchItems, tasks.Persist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreateDestination, tasks.Remap:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.MigrateItems:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()
	defer close(progressCh)

	if createOnly {
		summary, err := engine.CreatePhase(ctx, progressCh, userID)
		if err != nil {
			return err
		}
		return r.printSummary(summary)
	}

	selected, err := r.selectPlaylists(ctx, sourceClient.client, ids, all)
	if err != nil {
		return err
	}

	if fetchOnly {
		if err := engine.FetchPhase(ctx, progressCh, userID, selected); err != nil {
			return err
		}
		r.writePlainln("✓ Mirrored %d playlists. Run with --create-only after linking the destination account.", len(selected))
		return nil
	}

	summary, err := engine.Migrate(ctx, progressCh, userID, selected)
	if err != nil {
		return err
	}
	return r.printSummary(summary)
}

type clientResult struct {
	client services.ResourceClient
	err    error
}

// clientsFor resolves the account clients a migration needs. The unused half
// stays nil so a phase-limited run works with only one linked account.
func (r *Runner) clientsFor(ctx context.Context, fetchOnly, createOnly bool) (source, dest clientResult) {
	if !createOnly {
		source.client, source.err = r.resourceClient(ctx, accountSource)
	}
	if !fetchOnly {
		dest.client, dest.err = r.resourceClient(ctx, accountDest)
	}
	return source, dest
}

// selectPlaylists lists the source account's playlists and filters them down
// to the requested ids, or returns all of them with --all.
func (r *Runner) selectPlaylists(ctx context.Context, source services.ResourceClient, ids []string, all bool) ([]models.Playlist, error) {
	playlists, err := source.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	if all {
		return playlists, nil
	}

	var selected []models.Playlist
	for _, pl := range playlists {
		if slices.Contains(ids, pl.PlaylistID) {
			selected = append(selected, pl)
		}
	}
	if len(selected) != len(ids) {
		for _, id := range ids {
			if !slices.ContainsFunc(selected, func(p models.Playlist) bool { return p.PlaylistID == id }) {
				return nil, fmt.Errorf("%w: playlist %q not found on source account", shared.ErrInvalidArgument, id)
			}
		}
	}
	return selected, nil
}

func (r *Runner) printSummary(summary *models.Summary) error {
	r.writePlain("\n")
	r.writePlainHeader("Migration Complete")
	r.writePlain("Playlists: %d succeeded, %d failed\n", summary.SucceededPlaylists, summary.FailedPlaylists)
	r.writePlain("Items: %d succeeded, %d failed\n", summary.SucceededItems, summary.FailedItems)

	failed := 0
	for _, d := range summary.Details {
		if d.Status == models.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		r.writePlain("\nFailures:\n")
		for _, d := range summary.Details {
			if d.Status == models.StatusFailed {
				r.writePlain("  - %s: %s\n", d.Title, d.Reason)
			}
		}
	}

	return nil
}
