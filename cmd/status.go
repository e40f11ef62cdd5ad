package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/repositories"
	"github.com/ytmigrate/ytmigrate/internal/tasks"
)

// Status summarizes the unexpired migration outcomes for a user.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	retention := repositories.DefaultStatusRetention
	if hours := r.config.Migration.StatusRetentionHours; hours > 0 {
		retention = time.Duration(hours) * time.Hour
	}
	reporter := tasks.NewReporter(repositories.NewStatusRepository(db, retention))

	summary, err := reporter.Summarize(userID)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(summary, pretty)
	}

	r.writePlainHeader("Migration Status")
	r.writePlain("Playlists: %d succeeded, %d failed\n", summary.SucceededPlaylists, summary.FailedPlaylists)
	r.writePlain("Items: %d succeeded, %d failed\n", summary.SucceededItems, summary.FailedItems)

	if len(summary.Details) > 0 {
		r.writePlain("\nDetails:\n")
		for _, d := range summary.Details {
			mark := "✓"
			if d.Status == models.StatusFailed {
				mark = "✗"
			}
			r.writePlain("  %s %s", mark, d.Title)
			if d.Reason != "" {
				r.writePlain(" (%s)", d.Reason)
			}
			r.writePlain("\n")
		}
	}

	return nil
}
