package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// DefaultStatusRetention bounds how long migration status records are readable.
const DefaultStatusRetention = 28 * time.Hour

// StatusRepository stores append-only migration status records.
//
// Records are never updated; rows past their expiry are invisible to readers
// and pruned opportunistically on write.
type StatusRepository struct {
	db        *sql.DB
	retention time.Duration
}

// NewStatusRepository creates a StatusRepository with the given retention window.
// A non-positive retention selects [DefaultStatusRetention].
func NewStatusRepository(db *sql.DB, retention time.Duration) *StatusRepository {
	if retention <= 0 {
		retention = DefaultStatusRetention
	}
	return &StatusRepository{db: db, retention: retention}
}

// Append stores one status record, assigning id and timestamps when unset.
func (r *StatusRepository) Append(record models.MigrationStatusRecord) error {
	if record.UserID == "" || record.ResourceID == "" {
		return fmt.Errorf("%w: status record requires user_id and resource_id", shared.ErrValidation)
	}

	if record.ID == "" {
		record.ID = shared.GenerateID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(r.retention)
	}

	_, err := r.db.Exec(`
		INSERT INTO migration_statuses
			(id, user_id, resource_class, resource_id, title, status, context, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.UserID, string(record.ResourceClass), record.ResourceID,
		record.Title, string(record.Status), record.Context, record.CreatedAt, record.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: failed to append status record: %v", shared.ErrStorage, err)
	}

	// Prune rows no reader can see anymore.
	if _, err := r.db.Exec("DELETE FROM migration_statuses WHERE expires_at <= ?", time.Now()); err != nil {
		return fmt.Errorf("%w: failed to prune expired statuses: %v", shared.ErrStorage, err)
	}
	return nil
}

// ListByClass retrieves unexpired records of one resource class in append order.
func (r *StatusRepository) ListByClass(userID string, class models.ResourceClass) ([]models.MigrationStatusRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, resource_class, resource_id, title, status, context, created_at, expires_at
		FROM migration_statuses
		WHERE user_id = ? AND resource_class = ? AND expires_at > ?
		ORDER BY rowid ASC
	`, userID, string(class), time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query status records: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var records []models.MigrationStatusRecord
	for rows.Next() {
		var (
			rec       models.MigrationStatusRecord
			classStr  string
			statusStr string
		)
		err := rows.Scan(&rec.ID, &rec.UserID, &classStr, &rec.ResourceID, &rec.Title,
			&statusStr, &rec.Context, &rec.CreatedAt, &rec.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan status record: %v", shared.ErrStorage, err)
		}
		rec.ResourceClass = models.ResourceClass(classStr)
		rec.Status = models.MigrationStatus(statusStr)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}
	return records, nil
}
