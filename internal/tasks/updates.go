package tasks

import (
	"fmt"

	"github.com/ytmigrate/ytmigrate/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchItems
	Persist
	CreateDestination
	Remap
	MigrateItems
	Subscriptions
	Prune
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchItems:
		return "fetch_items"
	case Persist:
		return "persist"
	case CreateDestination:
		return "create_destination"
	case Remap:
		return "remap"
	case MigrateItems:
		return "migrate_items"
	case Subscriptions:
		return "subscriptions"
	case Prune:
		return "prune"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching items: %s...", step, total, title),
	}
}

func persistUpdate(step, total int, title string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Saved %s (%d items)", step, total, title, count),
	}
}

func createDestinationUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateDestination,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Creating playlist: %s...", step, total, title),
	}
}

func createFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateDestination,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func remapUpdate(step, total int, pl *models.Playlist, destID string, remapped int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Remap,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s, %d items queued)", pl.Title, destID, remapped),
		Data:    pl,
	}
}

func migrateItemUpdate(step, total int, item *models.PlaylistItem) ProgressUpdate {
	if item == nil {
		return ProgressUpdate{
			Phase:   MigrateItems,
			Step:    step,
			Total:   total,
			Message: "Copying playlist items...",
		}
	}
	return ProgressUpdate{
		Phase:   MigrateItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, item.Title),
	}
}

func subscriptionUpdate(step, total int, channelID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Subscriptions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Subscribing to %s...", step, total, channelID),
	}
}

func pruneUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Prune,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Unsubscribing: %s...", step, total, title),
	}
}
