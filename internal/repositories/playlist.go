package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// PlaylistRepository mirrors source-account playlists.
//
// Ingestion is first-write-wins: a playlist already stored for the same
// (user_id, playlist_id) pair is left untouched on re-fetch.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts playlists whose (user_id, playlist_id) pair is not stored yet.
func (r *PlaylistRepository) Upsert(userID string, playlists []models.Playlist) error {
	return execTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO playlists (id, user_id, playlist_id, title, description, privacy_status, default_lang, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, playlist_id) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("%w: failed to prepare playlist insert: %v", shared.ErrStorage, err)
		}
		defer stmt.Close()

		for _, pl := range playlists {
			pl.UserID = userID
			if err := pl.Validate(); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrValidation, err)
			}

			id := pl.ID
			if id == "" {
				id = shared.GenerateID()
			}
			uploadedAt := pl.UploadedAt
			if uploadedAt.IsZero() {
				uploadedAt = time.Now()
			}

			if _, err := stmt.Exec(id, userID, pl.PlaylistID, pl.Title, pl.Description,
				string(pl.PrivacyStatus), pl.DefaultLang, uploadedAt); err != nil {
				return fmt.Errorf("%w: failed to insert playlist %s: %v", shared.ErrStorage, pl.PlaylistID, err)
			}
		}
		return nil
	})
}

// Get retrieves one playlist by its source-side id.
func (r *PlaylistRepository) Get(userID, playlistID string) (*models.Playlist, error) {
	row := r.db.QueryRow(`
		SELECT id, user_id, playlist_id, title, description, privacy_status, default_lang, uploaded_at
		FROM playlists
		WHERE user_id = ? AND playlist_id = ?
	`, userID, playlistID)

	pl, err := scanPlaylist(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found: %s", playlistID)
	}
	if err != nil {
		return nil, err
	}
	return pl, nil
}

// List retrieves all playlists for a user in insertion order.
func (r *PlaylistRepository) List(userID string) ([]models.Playlist, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, playlist_id, title, description, privacy_status, default_lang, uploaded_at
		FROM playlists
		WHERE user_id = ?
		ORDER BY rowid ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlists: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		pl, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *pl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}
	return playlists, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var (
		pl      models.Playlist
		privacy string
	)
	err := s.Scan(&pl.ID, &pl.UserID, &pl.PlaylistID, &pl.Title, &pl.Description,
		&privacy, &pl.DefaultLang, &pl.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrStorage, err)
	}
	pl.PrivacyStatus = models.PrivacyStatus(privacy)
	return &pl, nil
}
