package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
	"github.com/ytmigrate/ytmigrate/internal/tasks"
)

// SubscriptionsList prints the channel subscriptions of the source account.
func (r *Runner) SubscriptionsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	source, err := r.resourceClient(ctx, accountSource)
	if err != nil {
		return err
	}

	r.logger.Info("listing source subscriptions")

	subs, err := source.ListSubscriptions(ctx)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(subs, pretty)
	}

	r.writePlain("Found %d subscriptions:\n\n", len(subs))
	for i, s := range subs {
		r.writePlain("%d. %s (channel %s)\n", i+1, s.Title, s.ChannelID)
	}

	return nil
}

// SubscriptionsMigrate subscribes the destination account to every channel the
// source account follows.
func (r *Runner) SubscriptionsMigrate(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := r.resourceClient(ctx, accountSource)
	if err != nil {
		return err
	}
	dest, err := r.resourceClient(ctx, accountDest)
	if err != nil {
		return err
	}
	engine := r.buildEngine(db, source, dest)

	subs, err := source.ListSubscriptions(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		r.writePlain("No subscriptions to migrate.\n")
		return nil
	}

	r.writePlain("Migrating %d subscriptions...\n\n", len(subs))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	report, err := engine.MigrateSubscriptions(ctx, progressCh, subs)
	close(progressCh)
	if err != nil {
		return err
	}

	return r.printSubscriptionReport("Subscription Migration Complete", report)
}

// SubscriptionsPrune unsubscribes the source account from every channel that
// was successfully carried over to the destination. Requires --yes.
func (r *Runner) SubscriptionsPrune(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pruning is destructive, pass --yes to confirm", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := r.resourceClient(ctx, accountSource)
	if err != nil {
		return err
	}
	dest, err := r.resourceClient(ctx, accountDest)
	if err != nil {
		return err
	}
	engine := r.buildEngine(db, source, dest)

	sourceSubs, err := source.ListSubscriptions(ctx)
	if err != nil {
		return err
	}
	destSubs, err := dest.ListSubscriptions(ctx)
	if err != nil {
		return err
	}

	// Only drop channels the destination account verifiably follows.
	var carried []models.Subscription
	for _, sub := range sourceSubs {
		if slices.ContainsFunc(destSubs, func(d models.Subscription) bool { return d.ChannelID == sub.ChannelID }) {
			carried = append(carried, sub)
		}
	}
	if len(carried) == 0 {
		r.writePlain("No migrated subscriptions to prune.\n")
		return nil
	}

	r.writePlain("Pruning %d subscriptions from the source account...\n\n", len(carried))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	report, err := engine.PruneSubscriptions(ctx, progressCh, carried)
	close(progressCh)
	if err != nil {
		return err
	}

	return r.printSubscriptionReport("Subscription Prune Complete", report)
}

func (r *Runner) printSubscriptionReport(title string, report *models.SubscriptionReport) error {
	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Succeeded: %d\n", len(report.Succeeded))
	r.writePlain("Failed: %d\n", len(report.Failed))

	if len(report.Failed) > 0 {
		r.writePlain("\nFailures:\n")
		for _, f := range report.Failed {
			r.writePlain("  - %s: %s\n", f.ChannelID, f.Reason)
		}
	}

	return nil
}
