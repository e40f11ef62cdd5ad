package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// PlaylistItemRepository mirrors playlist items and tracks their remap state.
//
// Dedup key is (user_id, originating_playlist_id, resource_id); remapping the
// destination id is atomic per originating playlist.
type PlaylistItemRepository struct {
	db *sql.DB
}

// NewPlaylistItemRepository creates a new PlaylistItemRepository with the given database connection
func NewPlaylistItemRepository(db *sql.DB) *PlaylistItemRepository {
	return &PlaylistItemRepository{db: db}
}

// Upsert inserts items whose dedup key is not stored yet (first-write-wins).
func (r *PlaylistItemRepository) Upsert(userID string, items []models.PlaylistItem) error {
	return execTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO playlist_items
				(id, user_id, originating_playlist_id, destination_playlist_id, updated_id,
				 position, note, resource_id, resource_kind, title, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, originating_playlist_id, resource_id) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("%w: failed to prepare item insert: %v", shared.ErrStorage, err)
		}
		defer stmt.Close()

		for _, item := range items {
			item.UserID = userID
			if err := item.Validate(); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrValidation, err)
			}

			id := item.ID
			if id == "" {
				id = shared.GenerateID()
			}
			uploadedAt := item.UploadedAt
			if uploadedAt.IsZero() {
				uploadedAt = time.Now()
			}
			var destination sql.NullString
			if item.DestinationPlaylistID != "" {
				destination = sql.NullString{String: item.DestinationPlaylistID, Valid: true}
			}

			if _, err := stmt.Exec(id, userID, item.OriginatingPlaylistID, destination, item.UpdatedID,
				item.Position, item.Note, item.ResourceID, item.ResourceKind, item.Title, uploadedAt); err != nil {
				return fmt.Errorf("%w: failed to insert item %s: %v", shared.ErrStorage, item.ResourceID, err)
			}
		}
		return nil
	})
}

// ListPending retrieves all items not yet remapped, ordered by originating
// playlist then ascending position.
func (r *PlaylistItemRepository) ListPending(userID string) ([]models.PlaylistItem, error) {
	return r.list(`
		SELECT id, user_id, originating_playlist_id, destination_playlist_id, updated_id,
		       position, note, resource_id, resource_kind, title, uploaded_at
		FROM playlist_items
		WHERE user_id = ? AND updated_id = 0
		ORDER BY originating_playlist_id, position ASC
	`, userID)
}

// ListRemapped retrieves the items of one originating playlist that carry a
// destination id, ordered by ascending position.
func (r *PlaylistItemRepository) ListRemapped(userID, originatingPlaylistID string) ([]models.PlaylistItem, error) {
	return r.list(`
		SELECT id, user_id, originating_playlist_id, destination_playlist_id, updated_id,
		       position, note, resource_id, resource_kind, title, uploaded_at
		FROM playlist_items
		WHERE user_id = ? AND originating_playlist_id = ? AND updated_id = 1
		ORDER BY position ASC
	`, userID, originatingPlaylistID)
}

// RemapDestination assigns the destination playlist id to every pending item
// under the originating playlist and flips updated_id, all-or-nothing.
// Returns the number of remapped items.
func (r *PlaylistItemRepository) RemapDestination(userID, originatingPlaylistID, destinationPlaylistID string) (int64, error) {
	if destinationPlaylistID == "" {
		return 0, fmt.Errorf("%w: destination playlist id is required", shared.ErrValidation)
	}

	var remapped int64
	err := execTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE playlist_items
			SET destination_playlist_id = ?, updated_id = 1
			WHERE user_id = ? AND originating_playlist_id = ? AND updated_id = 0
		`, destinationPlaylistID, userID, originatingPlaylistID)
		if err != nil {
			return fmt.Errorf("%w: failed to remap items for %s: %v", shared.ErrStorage, originatingPlaylistID, err)
		}

		remapped, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remapped, nil
}

func (r *PlaylistItemRepository) list(query string, args ...any) ([]models.PlaylistItem, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlist items: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var items []models.PlaylistItem
	for rows.Next() {
		var (
			item        models.PlaylistItem
			destination sql.NullString
		)
		err := rows.Scan(&item.ID, &item.UserID, &item.OriginatingPlaylistID, &destination,
			&item.UpdatedID, &item.Position, &item.Note, &item.ResourceID, &item.ResourceKind,
			&item.Title, &item.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist item: %v", shared.ErrStorage, err)
		}
		if destination.Valid {
			item.DestinationPlaylistID = destination.String
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}
	return items, nil
}
