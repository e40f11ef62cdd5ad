// package repositories provides the local mirror store over SQLite.
//
// The mirror store holds a per-user snapshot of source-account resources for
// the duration of a migration run: playlists, playlist items with their
// remap state, and the append-only migration status records. All writes are
// idempotent upserts keyed on the natural resource ids, so re-running a fetch
// never duplicates rows.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// execTx runs fn inside a transaction, rolling back on error.
func execTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", shared.ErrStorage, err)
	}
	return nil
}
