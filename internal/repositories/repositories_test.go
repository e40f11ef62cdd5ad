package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func seedOwner(t *testing.T, db *sql.DB, userID string) {
	t.Helper()
	if _, err := NewOwnerRepository(db).GetOrCreate(userID); err != nil {
		t.Fatalf("failed to seed owner: %v", err)
	}
}

func testPlaylist(userID, playlistID, title string) models.Playlist {
	return models.Playlist{
		UserID:        userID,
		PlaylistID:    playlistID,
		Title:         title,
		PrivacyStatus: models.PrivacyPrivate,
		UploadedAt:    time.Now(),
	}
}

func testItem(userID, playlistID, videoID string, position int) models.PlaylistItem {
	return models.PlaylistItem{
		UserID:                userID,
		OriginatingPlaylistID: playlistID,
		Position:              position,
		ResourceID:            videoID,
		ResourceKind:          "youtube#video",
		Title:                 "Video " + videoID,
		UploadedAt:            time.Now(),
	}
}

func TestOwnerRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOwnerRepository(db)

	t.Run("Get returns error for unknown owner", func(t *testing.T) {
		if _, err := repo.Get("nobody"); err == nil {
			t.Error("expected error for unknown owner")
		}
	})

	t.Run("GetOrCreate is idempotent", func(t *testing.T) {
		first, err := repo.GetOrCreate("alice")
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		second, err := repo.GetOrCreate("alice")
		if err != nil {
			t.Fatalf("second GetOrCreate failed: %v", err)
		}
		if first.UserID != second.UserID {
			t.Errorf("expected same owner, got %q and %q", first.UserID, second.UserID)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	db := setupTestDB(t)
	seedOwner(t, db, "alice")
	repo := NewPlaylistRepository(db)

	t.Run("Upsert assigns ids and is idempotent", func(t *testing.T) {
		playlists := []models.Playlist{
			testPlaylist("alice", "PL1", "Favorites"),
			testPlaylist("alice", "PL2", "Watch Later"),
		}

		if err := repo.Upsert("alice", playlists); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if err := repo.Upsert("alice", playlists); err != nil {
			t.Fatalf("second Upsert failed: %v", err)
		}

		got, err := repo.List("alice")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 playlists after double upsert, got %d", len(got))
		}
		for _, pl := range got {
			if pl.ID == "" {
				t.Errorf("playlist %s has no surrogate id", pl.PlaylistID)
			}
		}
	})

	t.Run("List preserves insertion order", func(t *testing.T) {
		got, err := repo.List("alice")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if got[0].PlaylistID != "PL1" || got[1].PlaylistID != "PL2" {
			t.Errorf("unexpected order: %s, %s", got[0].PlaylistID, got[1].PlaylistID)
		}
	})

	t.Run("Get returns one playlist", func(t *testing.T) {
		pl, err := repo.Get("alice", "PL1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if pl.Title != "Favorites" {
			t.Errorf("expected title Favorites, got %q", pl.Title)
		}
	})

	t.Run("Upsert rejects invalid records", func(t *testing.T) {
		bad := []models.Playlist{{UserID: "alice", PlaylistID: "PL3"}}
		if err := repo.Upsert("alice", bad); err == nil {
			t.Error("expected validation error for playlist without title")
		}
	})
}

func TestPlaylistItemRepository(t *testing.T) {
	db := setupTestDB(t)
	seedOwner(t, db, "alice")

	playlists := NewPlaylistRepository(db)
	if err := playlists.Upsert("alice", []models.Playlist{testPlaylist("alice", "PL1", "Favorites")}); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}

	repo := NewPlaylistItemRepository(db)

	t.Run("Upsert is idempotent", func(t *testing.T) {
		items := []models.PlaylistItem{
			testItem("alice", "PL1", "vid-a", 0),
			testItem("alice", "PL1", "vid-b", 1),
		}
		if err := repo.Upsert("alice", items); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if err := repo.Upsert("alice", items); err != nil {
			t.Fatalf("second Upsert failed: %v", err)
		}

		pending, err := repo.ListPending("alice")
		if err != nil {
			t.Fatalf("ListPending failed: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("expected 2 pending items after double upsert, got %d", len(pending))
		}
	})

	t.Run("ListPending orders by position", func(t *testing.T) {
		late := []models.PlaylistItem{
			testItem("alice", "PL1", "vid-early", 0),
		}
		late[0].Position = 5
		if err := repo.Upsert("alice", late); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		pending, err := repo.ListPending("alice")
		if err != nil {
			t.Fatalf("ListPending failed: %v", err)
		}
		for i := 1; i < len(pending); i++ {
			if pending[i-1].Position > pending[i].Position {
				t.Errorf("pending items out of order at %d: %d > %d", i, pending[i-1].Position, pending[i].Position)
			}
		}
	})

	t.Run("RemapDestination flips all pending rows once", func(t *testing.T) {
		n, err := repo.RemapDestination("alice", "PL1", "DEST1")
		if err != nil {
			t.Fatalf("RemapDestination failed: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 remapped rows, got %d", n)
		}

		remapped, err := repo.ListRemapped("alice", "PL1")
		if err != nil {
			t.Fatalf("ListRemapped failed: %v", err)
		}
		for _, item := range remapped {
			if !item.UpdatedID || item.DestinationPlaylistID != "DEST1" {
				t.Errorf("item %s not remapped: updated=%v dest=%q", item.ResourceID, item.UpdatedID, item.DestinationPlaylistID)
			}
		}

		pending, err := repo.ListPending("alice")
		if err != nil {
			t.Fatalf("ListPending failed: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("expected no pending items after remap, got %d", len(pending))
		}
	})

	t.Run("second remap touches nothing", func(t *testing.T) {
		n, err := repo.RemapDestination("alice", "PL1", "DEST2")
		if err != nil {
			t.Fatalf("RemapDestination failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 remapped rows, got %d", n)
		}

		remapped, err := repo.ListRemapped("alice", "PL1")
		if err != nil {
			t.Fatalf("ListRemapped failed: %v", err)
		}
		for _, item := range remapped {
			if item.DestinationPlaylistID != "DEST1" {
				t.Errorf("item %s rewritten to %q", item.ResourceID, item.DestinationPlaylistID)
			}
		}
	})
}

func TestStatusRepository(t *testing.T) {
	db := setupTestDB(t)
	seedOwner(t, db, "alice")

	t.Run("Append and ListByClass", func(t *testing.T) {
		repo := NewStatusRepository(db, time.Hour)

		records := []models.MigrationStatusRecord{
			{UserID: "alice", ResourceClass: models.ClassPlaylist, ResourceID: "PL1", Title: "Favorites", Status: models.StatusSucceeded},
			{UserID: "alice", ResourceClass: models.ClassPlaylist, ResourceID: "PL2", Title: "Mix", Status: models.StatusFailed, Context: "Playlist Operation Unsupported"},
			{UserID: "alice", ResourceClass: models.ClassPlaylistItem, ResourceID: "vid-a", Title: "Video A", Status: models.StatusSucceeded},
		}
		for _, rec := range records {
			if err := repo.Append(rec); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		playlists, err := repo.ListByClass("alice", models.ClassPlaylist)
		if err != nil {
			t.Fatalf("ListByClass failed: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlist records, got %d", len(playlists))
		}
		if playlists[1].Context != "Playlist Operation Unsupported" {
			t.Errorf("expected failure context, got %q", playlists[1].Context)
		}

		items, err := repo.ListByClass("alice", models.ClassPlaylistItem)
		if err != nil {
			t.Fatalf("ListByClass failed: %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected 1 item record, got %d", len(items))
		}
	})

	t.Run("expired records are excluded", func(t *testing.T) {
		repo := NewStatusRepository(db, -time.Minute)

		rec := models.MigrationStatusRecord{
			UserID:        "alice",
			ResourceClass: models.ClassSubscription,
			ResourceID:    "chan-1",
			Status:        models.StatusSucceeded,
		}
		if err := repo.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		got, err := repo.ListByClass("alice", models.ClassSubscription)
		if err != nil {
			t.Fatalf("ListByClass failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected expired record to be hidden, got %d records", len(got))
		}
	})
}
