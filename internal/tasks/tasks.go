// package tasks implements the migration engine that moves playlists and
// subscriptions between two YouTube accounts.
//
// A run has two halves: a fetch phase that mirrors the source account into the
// local store under the source credential, and a create phase that re-creates
// the mirrored resources on the destination account under the destination
// credential. Operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/repositories"
	"github.com/ytmigrate/ytmigrate/internal/services"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// Engine defines the migration operations exposed to the CLI layer.
type Engine interface {
	// Migrate runs both phases back to back: mirror the selected playlists
	// from the source account, then re-create them on the destination.
	Migrate(ctx context.Context, progress chan<- ProgressUpdate, userID string, selected []models.Playlist) (*models.Summary, error)

	// FetchPhase mirrors the selected playlists and their items into the
	// local store without touching the destination account.
	FetchPhase(ctx context.Context, progress chan<- ProgressUpdate, userID string, selected []models.Playlist) error

	// CreatePhase re-creates every mirrored playlist on the destination
	// account and copies its pending items.
	CreatePhase(ctx context.Context, progress chan<- ProgressUpdate, userID string) (*models.Summary, error)

	// MigrateSubscriptions subscribes the destination account to each channel.
	MigrateSubscriptions(ctx context.Context, progress chan<- ProgressUpdate, subs []models.Subscription) (*models.SubscriptionReport, error)

	// PruneSubscriptions removes the given subscriptions from the source account.
	PruneSubscriptions(ctx context.Context, progress chan<- ProgressUpdate, subs []models.Subscription) (*models.SubscriptionReport, error)
}

// MigrationEngine implements Engine against a ResourceClient pair and the
// local mirror store. All dependencies are injected at construction.
type MigrationEngine struct {
	source    services.ResourceClient
	dest      services.ResourceClient
	owners    *repositories.OwnerRepository
	playlists *repositories.PlaylistRepository
	items     *repositories.PlaylistItemRepository
	statuses  *repositories.StatusRepository
	retry     RetryPolicy
	limiter   *rate.Limiter
	logger    *log.Logger

	mu     sync.Mutex
	active map[string]bool
}

// EngineConfig collects the dependencies of a MigrationEngine.
type EngineConfig struct {
	Source    services.ResourceClient // client for the account being read
	Dest      services.ResourceClient // client for the account being written
	Owners    *repositories.OwnerRepository
	Playlists *repositories.PlaylistRepository
	Items     *repositories.PlaylistItemRepository
	Statuses  *repositories.StatusRepository
	Retry     RetryPolicy
	RateLimit float64 // creation calls per second, <= 0 disables throttling
	Logger    *log.Logger
}

// NewMigrationEngine creates a MigrationEngine from cfg. A zero Retry policy
// is replaced with DefaultRetryPolicy classified by IsPermanentError.
func NewMigrationEngine(cfg EngineConfig) *MigrationEngine {
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy(services.IsPermanentError)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &MigrationEngine{
		source:    cfg.Source,
		dest:      cfg.Dest,
		owners:    cfg.Owners,
		playlists: cfg.Playlists,
		items:     cfg.Items,
		statuses:  cfg.Statuses,
		retry:     retry,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		active:    make(map[string]bool),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// If the channel is nil or full, the update is dropped.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// acquire marks userID as having an active run. A second concurrent run for
// the same user fails with ErrRunActive; distinct users proceed independently.
func (e *MigrationEngine) acquire(userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active[userID] {
		return fmt.Errorf("%w: %s", shared.ErrRunActive, userID)
	}
	e.active[userID] = true
	return nil
}

func (e *MigrationEngine) release(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, userID)
}

// Migrate runs the fetch and create phases back to back under one run lock.
func (e *MigrationEngine) Migrate(ctx context.Context, progress chan<- ProgressUpdate, userID string, selected []models.Playlist) (*models.Summary, error) {
	if err := e.acquire(userID); err != nil {
		return nil, err
	}
	defer e.release(userID)

	if err := e.fetch(ctx, progress, userID, selected); err != nil {
		return nil, err
	}
	return e.create(ctx, progress, userID)
}

// FetchPhase mirrors the selected playlists into the local store.
func (e *MigrationEngine) FetchPhase(ctx context.Context, progress chan<- ProgressUpdate, userID string, selected []models.Playlist) error {
	if err := e.acquire(userID); err != nil {
		return err
	}
	defer e.release(userID)
	return e.fetch(ctx, progress, userID, selected)
}

// CreatePhase re-creates every mirrored playlist on the destination account.
func (e *MigrationEngine) CreatePhase(ctx context.Context, progress chan<- ProgressUpdate, userID string) (*models.Summary, error) {
	if err := e.acquire(userID); err != nil {
		return nil, err
	}
	defer e.release(userID)
	return e.create(ctx, progress, userID)
}

// fetch lists each selected playlist's items on the source account and upserts
// playlist and items together. Listing errors abort the whole phase so a
// half-paginated playlist never reaches the store.
func (e *MigrationEngine) fetch(ctx context.Context, progress chan<- ProgressUpdate, userID string, selected []models.Playlist) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrValidation)
	}
	if len(selected) == 0 {
		return fmt.Errorf("%w: no playlists selected", shared.ErrValidation)
	}
	if e.source == nil {
		return fmt.Errorf("%w: source account is not authenticated", shared.ErrNotAuthenticated)
	}

	if _, err := e.owners.GetOrCreate(userID); err != nil {
		return err
	}

	total := len(selected)
	for i, pl := range selected {
		e.sendProgress(progress, fetchPlaylistUpdate(i+1, total, pl.Title))

		items, err := e.source.ListPlaylistItems(ctx, pl.PlaylistID)
		if err != nil {
			return fmt.Errorf("fetching items for %q: %w", pl.Title, err)
		}

		pl.UserID = userID
		if err := e.playlists.Upsert(userID, []models.Playlist{pl}); err != nil {
			return err
		}
		for j := range items {
			items[j].UserID = userID
		}
		if err := e.items.Upsert(userID, items); err != nil {
			return err
		}

		e.logger.Debug("mirrored playlist", "playlist", pl.PlaylistID, "items", len(items))
		e.sendProgress(progress, persistUpdate(i+1, total, pl.Title, len(items)))
	}

	return nil
}

// create reads the mirrored playlists back, re-creates each on the destination
// account, remaps its pending items to the new id, and copies them over. One
// playlist's failure is recorded and does not stop the others.
func (e *MigrationEngine) create(ctx context.Context, progress chan<- ProgressUpdate, userID string) (*models.Summary, error) {
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination account is not authenticated", shared.ErrNotAuthenticated)
	}

	stored, err := e.playlists.List(userID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: no mirrored playlists for user %s", shared.ErrValidation, userID)
	}

	pending, err := e.items.ListPending(userID)
	if err != nil {
		return nil, err
	}
	byPlaylist := make(map[string][]models.PlaylistItem, len(stored))
	for _, item := range pending {
		byPlaylist[item.OriginatingPlaylistID] = append(byPlaylist[item.OriginatingPlaylistID], item)
	}

	summary := &models.Summary{}
	total := len(stored)
	for i, pl := range stored {
		e.sendProgress(progress, createDestinationUpdate(i+1, total, pl.Title))

		destID, err := e.createPlaylist(ctx, pl)
		if err != nil {
			e.logger.Warn("playlist creation failed", "playlist", pl.PlaylistID, "err", err)
			e.recordStatus(summary, models.ClassPlaylist, userID, pl.PlaylistID, pl.Title, err)
			e.sendProgress(progress, createFailedUpdate(i+1, total, pl.Title, err))
			continue
		}

		remapped, err := e.items.RemapDestination(userID, pl.PlaylistID, destID)
		if err != nil {
			e.recordStatus(summary, models.ClassPlaylist, userID, pl.PlaylistID, pl.Title, err)
			continue
		}
		e.recordStatus(summary, models.ClassPlaylist, userID, pl.PlaylistID, pl.Title, nil)
		e.sendProgress(progress, remapUpdate(i+1, total, &pl, destID, remapped))

		e.migrateItems(ctx, progress, summary, userID, destID, byPlaylist[pl.PlaylistID])
	}

	return summary, nil
}

// createPlaylist re-creates one playlist on the destination account with
// retries and rate limiting, returning the destination-assigned id.
func (e *MigrationEngine) createPlaylist(ctx context.Context, pl models.Playlist) (string, error) {
	var destID string
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		id, err := e.dest.CreatePlaylist(ctx, pl)
		if err != nil {
			return err
		}
		destID = id
		return nil
	})
	return destID, err
}

// migrateItems copies the remapped items of one playlist in mirrored order.
// Item failures are recorded individually and never stop the remaining items.
func (e *MigrationEngine) migrateItems(ctx context.Context, progress chan<- ProgressUpdate, summary *models.Summary, userID, destID string, items []models.PlaylistItem) {
	total := len(items)
	if total == 0 {
		return
	}
	e.sendProgress(progress, migrateItemUpdate(0, total, nil))

	for i, item := range items {
		item.DestinationPlaylistID = destID
		err := e.retry.Do(ctx, func(ctx context.Context) error {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
			return e.dest.CreatePlaylistItem(ctx, item)
		})
		if err != nil {
			e.logger.Warn("item migration failed", "video", item.ResourceID, "err", err)
		}
		e.recordStatus(summary, models.ClassPlaylistItem, userID, item.ResourceID, item.Title, err)
		e.sendProgress(progress, migrateItemUpdate(i+1, total, &item))
	}
}

// recordStatus appends one status record and folds it into the run summary.
func (e *MigrationEngine) recordStatus(summary *models.Summary, class models.ResourceClass, userID, resourceID, title string, opErr error) {
	record := models.MigrationStatusRecord{
		UserID:        userID,
		ResourceClass: class,
		ResourceID:    resourceID,
		Title:         title,
		Status:        models.StatusSucceeded,
	}
	detail := models.StatusDetail{ResourceID: resourceID, Title: title, Status: models.StatusSucceeded}

	if opErr != nil {
		record.Status = models.StatusFailed
		record.Context = services.ReasonForError(opErr)
		detail.Status = models.StatusFailed
		detail.Reason = record.Context
	}

	switch {
	case class == models.ClassPlaylist && opErr == nil:
		summary.SucceededPlaylists++
	case class == models.ClassPlaylist:
		summary.FailedPlaylists++
	case opErr == nil:
		summary.SucceededItems++
	default:
		summary.FailedItems++
	}
	summary.Details = append(summary.Details, detail)

	if err := e.statuses.Append(record); err != nil {
		e.logger.Error("failed to record migration status", "resource", resourceID, "err", err)
	}
}
