// package services defines interface ResourceClient for the YouTube Data API
//
// One client is constructed per authenticated session: the source account for
// list calls, the destination account for create calls.
package services

import (
	"context"

	"github.com/ytmigrate/ytmigrate/internal/models"
)

// ResourceClient defines the remote operations a migration run needs: listing
// resources on the source account and re-creating them on the destination.
type ResourceClient interface {
	// ListSubscriptions retrieves every channel subscription of the
	// authenticated account, following continuation tokens until exhausted.
	// Pages are concatenated in the order returned by the API; any HTTP
	// failure aborts the whole listing with no partial result.
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)

	// ListPlaylists retrieves every playlist of the authenticated account.
	// Same pagination contract as ListSubscriptions.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// ListPlaylistItems retrieves every item of one playlist.
	// Same pagination contract as ListSubscriptions.
	ListPlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)

	// CreateSubscription subscribes the authenticated account to a channel.
	CreateSubscription(ctx context.Context, channelID string) error

	// DeleteSubscription removes a subscription by its resource id.
	DeleteSubscription(ctx context.Context, subscriptionID string) error

	// CreatePlaylist creates a playlist on the authenticated account and
	// returns the id assigned by the API. Not idempotent upstream: a retried
	// create may produce duplicates.
	CreatePlaylist(ctx context.Context, playlist models.Playlist) (string, error)

	// CreatePlaylistItem inserts one item under item.DestinationPlaylistID.
	CreatePlaylistItem(ctx context.Context, item models.PlaylistItem) error
}
