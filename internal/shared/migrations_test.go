package shared

import (
	"testing"
)

func TestRunMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	t.Run("creates all tables", func(t *testing.T) {
		for _, table := range []string{"owners", "playlists", "playlist_items", "migration_statuses"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
			if err != nil {
				t.Errorf("table %s missing: %v", table, err)
			}
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Errorf("second RunMigrations failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to count applied migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one applied migration")
		}
	})

	t.Run("rollback removes the last migration", func(t *testing.T) {
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration failed: %v", err)
		}

		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'playlists'").Scan(&name)
		if err == nil {
			t.Error("expected playlists table to be dropped after rollback")
		}
	})
}
