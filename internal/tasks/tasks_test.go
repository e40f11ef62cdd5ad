package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/repositories"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

var errPermanent = errors.New("subscription forbidden")

// mockClient implements services.ResourceClient against in-memory fixtures.
type mockClient struct {
	mu sync.Mutex

	playlists       []models.Playlist
	itemsByPlaylist map[string][]models.PlaylistItem
	subs            []models.Subscription

	listItemsErr      map[string]error // keyed by playlist id
	createPlaylistErr map[string]error // keyed by title
	createFailures    map[string]int   // title -> number of initial failures
	createItemErr     map[string]error // keyed by video id
	createSubErr      map[string]error // keyed by channel id

	createCalls      map[string]int
	createdPlaylists []models.Playlist
	createdItems     []models.PlaylistItem
	createdSubs      []string
	deletedSubs      []string
}

func newMockClient() *mockClient {
	return &mockClient{
		itemsByPlaylist:   make(map[string][]models.PlaylistItem),
		listItemsErr:      make(map[string]error),
		createPlaylistErr: make(map[string]error),
		createFailures:    make(map[string]int),
		createItemErr:     make(map[string]error),
		createSubErr:      make(map[string]error),
		createCalls:       make(map[string]int),
	}
}

func (m *mockClient) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return m.subs, nil
}

func (m *mockClient) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return m.playlists, nil
}

func (m *mockClient) ListPlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	if err := m.listItemsErr[playlistID]; err != nil {
		return nil, err
	}
	return m.itemsByPlaylist[playlistID], nil
}

func (m *mockClient) CreateSubscription(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createSubErr[channelID]; err != nil {
		return err
	}
	m.createdSubs = append(m.createdSubs, channelID)
	return nil
}

func (m *mockClient) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedSubs = append(m.deletedSubs, subscriptionID)
	return nil
}

func (m *mockClient) CreatePlaylist(ctx context.Context, playlist models.Playlist) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls[playlist.Title]++
	if err := m.createPlaylistErr[playlist.Title]; err != nil {
		return "", err
	}
	if m.createCalls[playlist.Title] <= m.createFailures[playlist.Title] {
		return "", errors.New("backend error")
	}
	m.createdPlaylists = append(m.createdPlaylists, playlist)
	return fmt.Sprintf("DEST-%d", len(m.createdPlaylists)), nil
}

func (m *mockClient) CreatePlaylistItem(ctx context.Context, item models.PlaylistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createItemErr[item.ResourceID]; err != nil {
		return err
	}
	m.createdItems = append(m.createdItems, item)
	return nil
}

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

func newTestEngine(t *testing.T, db *sql.DB, source, dest *mockClient) *MigrationEngine {
	t.Helper()
	return NewMigrationEngine(EngineConfig{
		Source:    source,
		Dest:      dest,
		Owners:    repositories.NewOwnerRepository(db),
		Playlists: repositories.NewPlaylistRepository(db),
		Items:     repositories.NewPlaylistItemRepository(db),
		Statuses:  repositories.NewStatusRepository(db, time.Hour),
		Retry:     fastPolicy(5, func(err error) bool { return errors.Is(err, errPermanent) }),
	})
}

func sourcePlaylist(id, title string) models.Playlist {
	return models.Playlist{
		PlaylistID:    id,
		Title:         title,
		PrivacyStatus: models.PrivacyPrivate,
		UploadedAt:    time.Now(),
	}
}

func sourceItem(playlistID, videoID string, position int) models.PlaylistItem {
	return models.PlaylistItem{
		OriginatingPlaylistID: playlistID,
		Position:              position,
		ResourceID:            videoID,
		ResourceKind:          "youtube#video",
		Title:                 "Video " + videoID,
		UploadedAt:            time.Now(),
	}
}

func TestMigrationEngine_Migrate(t *testing.T) {
	t.Run("end to end with two playlists", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{
			sourcePlaylist("PL1", "Favorites"),
			sourcePlaylist("PL2", "Mix"),
		}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{
			sourceItem("PL1", "vid-a", 0),
			sourceItem("PL1", "vid-b", 1),
			sourceItem("PL1", "vid-c", 2),
		}
		source.itemsByPlaylist["PL2"] = []models.PlaylistItem{
			sourceItem("PL2", "vid-d", 0),
			sourceItem("PL2", "vid-e", 1),
		}
		dest := newMockClient()
		engine := newTestEngine(t, db, source, dest)

		summary, err := engine.Migrate(context.Background(), nil, "alice", source.playlists)
		if err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}

		if summary.SucceededPlaylists != 2 || summary.FailedPlaylists != 0 {
			t.Errorf("playlists: got %d/%d succeeded/failed, want 2/0", summary.SucceededPlaylists, summary.FailedPlaylists)
		}
		if summary.SucceededItems != 5 || summary.FailedItems != 0 {
			t.Errorf("items: got %d/%d succeeded/failed, want 5/0", summary.SucceededItems, summary.FailedItems)
		}
		if len(dest.createdPlaylists) != 2 {
			t.Fatalf("expected 2 created playlists, got %d", len(dest.createdPlaylists))
		}
		if len(dest.createdItems) != 5 {
			t.Fatalf("expected 5 created items, got %d", len(dest.createdItems))
		}
		for _, item := range dest.createdItems {
			if item.DestinationPlaylistID == "" {
				t.Errorf("item %s created without destination playlist", item.ResourceID)
			}
		}
	})

	t.Run("item order follows mirrored positions", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{sourcePlaylist("PL1", "Favorites")}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{
			sourceItem("PL1", "vid-c", 3),
			sourceItem("PL1", "vid-a", 1),
			sourceItem("PL1", "vid-b", 2),
		}
		dest := newMockClient()
		engine := newTestEngine(t, db, source, dest)

		if _, err := engine.Migrate(context.Background(), nil, "alice", source.playlists); err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}

		var positions []int
		for _, item := range dest.createdItems {
			positions = append(positions, item.Position)
		}
		if len(positions) != 3 || positions[0] != 1 || positions[1] != 2 || positions[2] != 3 {
			t.Errorf("expected items created in position order [1 2 3], got %v", positions)
		}
	})

	t.Run("one failing playlist does not stop the others", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{
			sourcePlaylist("PL1", "Forbidden"),
			sourcePlaylist("PL2", "Mix"),
		}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{sourceItem("PL1", "vid-a", 0)}
		source.itemsByPlaylist["PL2"] = []models.PlaylistItem{sourceItem("PL2", "vid-b", 0)}
		dest := newMockClient()
		dest.createPlaylistErr["Forbidden"] = errPermanent
		engine := newTestEngine(t, db, source, dest)

		summary, err := engine.Migrate(context.Background(), nil, "alice", source.playlists)
		if err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}

		if summary.SucceededPlaylists != 1 || summary.FailedPlaylists != 1 {
			t.Errorf("playlists: got %d/%d succeeded/failed, want 1/1", summary.SucceededPlaylists, summary.FailedPlaylists)
		}
		for _, item := range dest.createdItems {
			if item.OriginatingPlaylistID == "PL1" {
				t.Errorf("item %s of failed playlist was created", item.ResourceID)
			}
		}
		if dest.createCalls["Forbidden"] != 1 {
			t.Errorf("permanent failure retried %d times", dest.createCalls["Forbidden"])
		}
	})

	t.Run("transient failures are retried up to the bound", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{sourcePlaylist("PL1", "Flaky")}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{sourceItem("PL1", "vid-a", 0)}
		dest := newMockClient()
		dest.createFailures["Flaky"] = 4
		engine := newTestEngine(t, db, source, dest)

		summary, err := engine.Migrate(context.Background(), nil, "alice", source.playlists)
		if err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}

		if dest.createCalls["Flaky"] != 5 {
			t.Errorf("expected 5 creation attempts, got %d", dest.createCalls["Flaky"])
		}
		if summary.SucceededPlaylists != 1 || summary.FailedPlaylists != 0 {
			t.Errorf("expected one succeeded playlist after retries, got %+v", summary)
		}

		statuses := repositories.NewStatusRepository(db, time.Hour)
		records, err := statuses.ListByClass("alice", models.ClassPlaylist)
		if err != nil {
			t.Fatalf("ListByClass failed: %v", err)
		}
		if len(records) != 1 || records[0].Status != models.StatusSucceeded {
			t.Errorf("expected exactly one succeeded record, got %+v", records)
		}
	})

	t.Run("fetch failure aborts before anything half-done is stored", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{
			sourcePlaylist("PL1", "Favorites"),
			sourcePlaylist("PL2", "Broken"),
		}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{sourceItem("PL1", "vid-a", 0)}
		source.listItemsErr["PL2"] = errors.New("backend error")
		dest := newMockClient()
		engine := newTestEngine(t, db, source, dest)

		if _, err := engine.Migrate(context.Background(), nil, "alice", source.playlists); err == nil {
			t.Fatal("expected fetch failure to abort the run")
		}

		playlists := repositories.NewPlaylistRepository(db)
		if _, err := playlists.Get("alice", "PL2"); err == nil {
			t.Error("half-fetched playlist was persisted")
		}
		if len(dest.createdPlaylists) != 0 {
			t.Errorf("create phase ran despite fetch failure, created %d playlists", len(dest.createdPlaylists))
		}
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		engine := newTestEngine(t, db, newMockClient(), newMockClient())

		_, err := engine.Migrate(context.Background(), nil, "alice", nil)
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("concurrent run for the same user is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{sourcePlaylist("PL1", "Favorites")}
		engine := newTestEngine(t, db, source, newMockClient())

		if err := engine.acquire("alice"); err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		defer engine.release("alice")

		_, err := engine.Migrate(context.Background(), nil, "alice", source.playlists)
		if !errors.Is(err, shared.ErrRunActive) {
			t.Errorf("expected ErrRunActive, got %v", err)
		}

		if err := engine.FetchPhase(context.Background(), nil, "bob", source.playlists); err != nil {
			t.Errorf("distinct user blocked: %v", err)
		}
	})
}

func TestMigrationEngine_Phases(t *testing.T) {
	t.Run("fetch then create as separate runs", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{sourcePlaylist("PL1", "Favorites")}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{
			sourceItem("PL1", "vid-a", 0),
			sourceItem("PL1", "vid-b", 1),
		}
		dest := newMockClient()
		engine := newTestEngine(t, db, source, dest)

		if err := engine.FetchPhase(context.Background(), nil, "alice", source.playlists); err != nil {
			t.Fatalf("FetchPhase failed: %v", err)
		}
		if len(dest.createdPlaylists) != 0 {
			t.Fatal("fetch phase touched the destination account")
		}

		summary, err := engine.CreatePhase(context.Background(), nil, "alice")
		if err != nil {
			t.Fatalf("CreatePhase failed: %v", err)
		}
		if summary.SucceededPlaylists != 1 || summary.SucceededItems != 2 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("create phase without mirrored data is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		engine := newTestEngine(t, db, newMockClient(), newMockClient())

		_, err := engine.CreatePhase(context.Background(), nil, "alice")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("rerun does not duplicate already migrated items", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		source.playlists = []models.Playlist{sourcePlaylist("PL1", "Favorites")}
		source.itemsByPlaylist["PL1"] = []models.PlaylistItem{sourceItem("PL1", "vid-a", 0)}
		dest := newMockClient()
		engine := newTestEngine(t, db, source, dest)

		if _, err := engine.Migrate(context.Background(), nil, "alice", source.playlists); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if _, err := engine.Migrate(context.Background(), nil, "alice", source.playlists); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		if len(dest.createdItems) != 1 {
			t.Errorf("expected remapped items to be skipped on rerun, got %d creations", len(dest.createdItems))
		}
	})
}

func TestMigrationEngine_Subscriptions(t *testing.T) {
	t.Run("migrate collects per-channel failures", func(t *testing.T) {
		db := setupTestDB(t)
		dest := newMockClient()
		dest.createSubErr["chan-2"] = errPermanent
		engine := newTestEngine(t, db, newMockClient(), dest)

		subs := []models.Subscription{
			{SubscriptionID: "sub1", ChannelID: "chan-1", Title: "One"},
			{SubscriptionID: "sub2", ChannelID: "chan-2", Title: "Two"},
			{SubscriptionID: "sub3", ChannelID: "chan-3", Title: "Three"},
		}
		report, err := engine.MigrateSubscriptions(context.Background(), nil, subs)
		if err != nil {
			t.Fatalf("MigrateSubscriptions failed: %v", err)
		}

		if len(report.Succeeded) != 2 || len(report.Failed) != 1 {
			t.Fatalf("expected 2 succeeded and 1 failed, got %d/%d", len(report.Succeeded), len(report.Failed))
		}
		if report.Failed[0].ChannelID != "chan-2" {
			t.Errorf("wrong failed channel: %s", report.Failed[0].ChannelID)
		}
	})

	t.Run("prune deletes by subscription id", func(t *testing.T) {
		db := setupTestDB(t)
		source := newMockClient()
		engine := newTestEngine(t, db, source, newMockClient())

		subs := []models.Subscription{{SubscriptionID: "sub1", ChannelID: "chan-1", Title: "One"}}
		report, err := engine.PruneSubscriptions(context.Background(), nil, subs)
		if err != nil {
			t.Fatalf("PruneSubscriptions failed: %v", err)
		}
		if len(report.Succeeded) != 1 {
			t.Errorf("expected 1 pruned subscription, got %d", len(report.Succeeded))
		}
		if len(source.deletedSubs) != 1 || source.deletedSubs[0] != "sub1" {
			t.Errorf("expected deletion of sub1, got %v", source.deletedSubs)
		}
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		engine := newTestEngine(t, db, newMockClient(), newMockClient())

		if _, err := engine.MigrateSubscriptions(context.Background(), nil, nil); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestReporter_Summarize(t *testing.T) {
	db := setupTestDB(t)
	source := newMockClient()
	source.playlists = []models.Playlist{
		sourcePlaylist("PL1", "Favorites"),
		sourcePlaylist("PL2", "Forbidden"),
	}
	source.itemsByPlaylist["PL1"] = []models.PlaylistItem{sourceItem("PL1", "vid-a", 0)}
	source.itemsByPlaylist["PL2"] = []models.PlaylistItem{sourceItem("PL2", "vid-b", 0)}
	dest := newMockClient()
	dest.createPlaylistErr["Forbidden"] = errPermanent
	engine := newTestEngine(t, db, source, dest)

	if _, err := engine.Migrate(context.Background(), nil, "alice", source.playlists); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	reporter := NewReporter(repositories.NewStatusRepository(db, time.Hour))
	summary, err := reporter.Summarize("alice")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.SucceededPlaylists != 1 || summary.FailedPlaylists != 1 {
		t.Errorf("playlists: got %d/%d, want 1/1", summary.SucceededPlaylists, summary.FailedPlaylists)
	}
	if summary.SucceededItems != 1 {
		t.Errorf("items: got %d succeeded, want 1", summary.SucceededItems)
	}

	var foundFailure bool
	for _, d := range summary.Details {
		if d.Status == models.StatusFailed {
			foundFailure = true
			if d.Reason == "" {
				t.Error("failed detail has no reason")
			}
		}
	}
	if !foundFailure {
		t.Error("expected a failed detail row")
	}

	empty, err := reporter.Summarize("nobody")
	if err != nil {
		t.Fatalf("Summarize for unknown user failed: %v", err)
	}
	if len(empty.Details) != 0 {
		t.Errorf("expected empty summary for unknown user, got %d details", len(empty.Details))
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	engine := &MigrationEngine{}

	// Full channel: update is dropped instead of blocking.
	ch := make(chan ProgressUpdate, 1)
	ch <- ProgressUpdate{Message: "first"}
	engine.sendProgress(ch, ProgressUpdate{Message: "second"})

	if got := <-ch; got.Message != "first" {
		t.Errorf("expected first update preserved, got %q", got.Message)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra update %q", extra.Message)
	default:
	}

	// Nil channel: no panic.
	engine.sendProgress(nil, ProgressUpdate{Message: "dropped"})
}
