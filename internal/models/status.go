package models

import "time"

// MigrationStatus is the terminal outcome recorded for one migrated resource.
type MigrationStatus string

const (
	StatusSucceeded MigrationStatus = "Succeeded"
	StatusFailed    MigrationStatus = "Failed"
)

// ResourceClass distinguishes status records by resource type.
type ResourceClass string

const (
	ClassPlaylist     ResourceClass = "playlist"
	ClassPlaylistItem ResourceClass = "playlist-item"
	ClassSubscription ResourceClass = "subscription"
)

// MigrationStatusRecord is one append-only status entry for a migration run.
//
// Records expire after a fixed retention window and are never updated in place.
type MigrationStatusRecord struct {
	ID            string
	UserID        string
	ResourceClass ResourceClass
	ResourceID    string
	Title         string
	Status        MigrationStatus
	Context       string // human-readable failure reason, empty on success
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// StatusDetail is one row of a Summary's detail listing.
type StatusDetail struct {
	ResourceID string          `json:"resource_id"`
	Title      string          `json:"title"`
	Status     MigrationStatus `json:"status"`
	Reason     string          `json:"reason,omitempty"`
}

// Summary aggregates the outcome of one migration run for a user.
type Summary struct {
	SucceededPlaylists int            `json:"succeeded_playlists"`
	FailedPlaylists    int            `json:"failed_playlists"`
	SucceededItems     int            `json:"succeeded_items"`
	FailedItems        int            `json:"failed_items"`
	Details            []StatusDetail `json:"details,omitempty"`
}

// FailedSubscription reports one channel that could not be subscribed.
type FailedSubscription struct {
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
}

// SubscriptionReport aggregates the outcome of a subscription migration pass.
type SubscriptionReport struct {
	Succeeded []string             `json:"succeeded"`
	Failed    []FailedSubscription `json:"failed"`
}
