package models

import (
	"fmt"
	"time"
)

// PrivacyStatus enumerates YouTube playlist privacy settings.
type PrivacyStatus string

const (
	PrivacyPrivate  PrivacyStatus = "private"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPublic   PrivacyStatus = "public"
)

// Valid reports whether the privacy status is one of the known values.
func (p PrivacyStatus) Valid() bool {
	switch p {
	case PrivacyPrivate, PrivacyUnlisted, PrivacyPublic:
		return true
	}
	return false
}

// Playlist is a playlist fetched from the source account and mirrored locally.
//
// (UserID, PlaylistID) is unique per owner; records are never mutated after
// insertion except implicitly through re-fetch.
type Playlist struct {
	ID            string // local surrogate key
	UserID        string
	PlaylistID    string // source-side external id
	Title         string
	Description   string
	PrivacyStatus PrivacyStatus
	DefaultLang   string
	UploadedAt    time.Time
}

// Validate checks the playlist record for required fields.
func (p Playlist) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("playlist user_id is required")
	}
	if p.PlaylistID == "" {
		return fmt.Errorf("playlist playlist_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("playlist title is required")
	}
	if !p.PrivacyStatus.Valid() {
		return fmt.Errorf("invalid privacy status: %q", p.PrivacyStatus)
	}
	return nil
}

// PlaylistItem is one entry of a mirrored playlist.
//
// DestinationPlaylistID stays empty and UpdatedID false until the remap step
// assigns the id of the playlist created on the destination account. The pair
// is flipped exactly once per migration run.
type PlaylistItem struct {
	ID                    string // local surrogate key
	UserID                string
	OriginatingPlaylistID string
	DestinationPlaylistID string
	UpdatedID             bool
	Position              int
	Note                  string
	ResourceID            string // referenced video id
	ResourceKind          string // e.g. "youtube#video"
	Title                 string
	UploadedAt            time.Time
}

// Validate checks the playlist item record for required fields.
func (i PlaylistItem) Validate() error {
	if i.UserID == "" {
		return fmt.Errorf("playlist item user_id is required")
	}
	if i.OriginatingPlaylistID == "" {
		return fmt.Errorf("playlist item originating_playlist_id is required")
	}
	if i.ResourceID == "" {
		return fmt.Errorf("playlist item resource_id is required")
	}
	if i.Position < 0 {
		return fmt.Errorf("playlist item position must be non-negative")
	}
	return nil
}

// Subscription is a channel subscription on the source account.
//
// Transient: subscriptions are migrated in one pass and never persisted to the
// mirror store.
type Subscription struct {
	SubscriptionID string // source-side subscription resource id
	ChannelID      string
	Title          string
}
