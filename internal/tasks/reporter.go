package tasks

import (
	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/repositories"
)

// Reporter aggregates the status records of past migration runs into a
// human-presentable summary. Expired records are excluded by the store.
type Reporter struct {
	statuses *repositories.StatusRepository
}

// NewReporter creates a Reporter over the given status store.
func NewReporter(statuses *repositories.StatusRepository) *Reporter {
	return &Reporter{statuses: statuses}
}

// Summarize counts the unexpired playlist and item status records for userID
// and lists every record as a detail row, playlists first, in insertion order.
func (r *Reporter) Summarize(userID string) (*models.Summary, error) {
	summary := &models.Summary{}

	playlists, err := r.statuses.ListByClass(userID, models.ClassPlaylist)
	if err != nil {
		return nil, err
	}
	for _, rec := range playlists {
		if rec.Status == models.StatusSucceeded {
			summary.SucceededPlaylists++
		} else {
			summary.FailedPlaylists++
		}
		summary.Details = append(summary.Details, detail(rec))
	}

	items, err := r.statuses.ListByClass(userID, models.ClassPlaylistItem)
	if err != nil {
		return nil, err
	}
	for _, rec := range items {
		if rec.Status == models.StatusSucceeded {
			summary.SucceededItems++
		} else {
			summary.FailedItems++
		}
		summary.Details = append(summary.Details, detail(rec))
	}

	return summary, nil
}

func detail(rec models.MigrationStatusRecord) models.StatusDetail {
	return models.StatusDetail{
		ResourceID: rec.ResourceID,
		Title:      rec.Title,
		Status:     rec.Status,
		Reason:     rec.Context,
	}
}
