package tasks

import (
	"context"
	"fmt"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/services"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// MigrateSubscriptions subscribes the destination account to each channel in
// subs. Failures are collected per channel; the pass never aborts early short
// of context cancellation.
func (e *MigrationEngine) MigrateSubscriptions(ctx context.Context, progress chan<- ProgressUpdate, subs []models.Subscription) (*models.SubscriptionReport, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no subscriptions to migrate", shared.ErrValidation)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination account is not authenticated", shared.ErrNotAuthenticated)
	}

	report := &models.SubscriptionReport{}
	total := len(subs)
	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.sendProgress(progress, subscriptionUpdate(i+1, total, sub.ChannelID))

		err := e.retry.Do(ctx, func(ctx context.Context) error {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
			return e.dest.CreateSubscription(ctx, sub.ChannelID)
		})
		if err != nil {
			e.logger.Warn("subscription failed", "channel", sub.ChannelID, "err", err)
			report.Failed = append(report.Failed, models.FailedSubscription{
				ChannelID: sub.ChannelID,
				Reason:    services.ReasonForError(err),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, sub.ChannelID)
	}

	return report, nil
}

// PruneSubscriptions unsubscribes the source account from each subscription in
// subs. Intended for cleanup after a verified migration.
func (e *MigrationEngine) PruneSubscriptions(ctx context.Context, progress chan<- ProgressUpdate, subs []models.Subscription) (*models.SubscriptionReport, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no subscriptions to prune", shared.ErrValidation)
	}
	if e.source == nil {
		return nil, fmt.Errorf("%w: source account is not authenticated", shared.ErrNotAuthenticated)
	}

	report := &models.SubscriptionReport{}
	total := len(subs)
	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.sendProgress(progress, pruneUpdate(i+1, total, sub.Title))

		err := e.retry.Do(ctx, func(ctx context.Context) error {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
			return e.source.DeleteSubscription(ctx, sub.SubscriptionID)
		})
		if err != nil {
			e.logger.Warn("unsubscribe failed", "channel", sub.ChannelID, "err", err)
			report.Failed = append(report.Failed, models.FailedSubscription{
				ChannelID: sub.ChannelID,
				Reason:    services.ReasonForError(err),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, sub.ChannelID)
	}

	return report, nil
}
