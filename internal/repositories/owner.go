package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// OwnerRepository persists migrating users.
//
// Owners are created on first interaction and never mutated.
type OwnerRepository struct {
	db *sql.DB
}

// NewOwnerRepository creates a new OwnerRepository with the given database connection
func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Get retrieves an owner by user id.
func (r *OwnerRepository) Get(userID string) (*models.Owner, error) {
	var owner models.Owner
	err := r.db.QueryRow(
		"SELECT user_id, created_at FROM owners WHERE user_id = ?", userID,
	).Scan(&owner.UserID, &owner.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("owner not found: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan owner: %v", shared.ErrStorage, err)
	}
	return &owner, nil
}

// GetOrCreate returns the owner for userID, inserting it on first interaction.
func (r *OwnerRepository) GetOrCreate(userID string) (*models.Owner, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrValidation)
	}

	_, err := r.db.Exec(
		"INSERT INTO owners (user_id, created_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING",
		userID, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert owner: %v", shared.ErrStorage, err)
	}

	return r.Get(userID)
}
