// YouTube Data API v3 [ResourceClient] implementation
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ytmigrate/ytmigrate/internal/models"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = 50
)

// apiError is the structured error envelope returned by the YouTube Data API.
type apiError struct {
	StatusCode int
	Code       int
	Message    string
	Reason     string // machine-readable, e.g. "subscriptionForbidden"
}

func (e *apiError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube API error (status %d, reason %s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube API error: status %d", e.StatusCode)
}

var camelChunk = regexp.MustCompile("[a-zA-Z][^A-Z]*")

// HumanReason converts the machine-readable reason into titled words,
// e.g. "subscriptionForbidden" becomes "Subscription Forbidden".
func (e *apiError) HumanReason() string {
	if e.Reason == "" {
		return e.Message
	}
	chunks := camelChunk.FindAllString(e.Reason, -1)
	for i, c := range chunks {
		chunks[i] = strings.ToUpper(c[:1]) + c[1:]
	}
	return strings.Join(chunks, " ")
}

// Permanent reports whether retrying the call cannot succeed: permission and
// ownership failures stay failed no matter how often they are retried.
// Quota errors are treated as transient since burst quota replenishes.
func (e *apiError) Permanent() bool {
	if e.StatusCode == http.StatusUnauthorized {
		return true
	}
	reason := strings.ToLower(e.Reason)
	return strings.Contains(reason, "forbidden") || strings.Contains(reason, "notfound")
}

// ReasonForError extracts the human-readable failure label from an error
// returned by this package. Falls back to the error text for plain errors.
func ReasonForError(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.HumanReason()
	}
	return err.Error()
}

// IsPermanentError reports whether err is an upstream error that will not
// succeed on retry.
func IsPermanentError(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Permanent()
}

// YouTubeClient implements [ResourceClient] against the YouTube Data API v3.
//
// The HTTP client is expected to carry OAuth credentials, typically built via
// [golang.org/x/oauth2.Config.Client].
type YouTubeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeClient creates a client for the given authenticated HTTP client.
// An empty baseURL selects the production API endpoint.
func NewYouTubeClient(baseURL string, httpClient *http.Client) *YouTubeClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTubeClient{baseURL: baseURL, httpClient: httpClient}
}

// doRequest performs one API round-trip and decodes the JSON response.
func (y *YouTubeClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := y.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Errors  []struct {
					Reason string `json:"reason"`
				} `json:"errors"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
			if len(envelope.Error.Errors) > 0 {
				apiErr.Reason = envelope.Error.Errors[0].Reason
			}
		}
		return fmt.Errorf("%w: %w", shared.ErrUpstream, apiErr)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstream, err)
		}
	}

	return nil
}

type resourceID struct {
	Kind      string `json:"kind,omitempty"`
	VideoID   string `json:"videoId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

type subscriptionResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title      string     `json:"title"`
		ResourceID resourceID `json:"resourceId"`
	} `json:"snippet"`
}

type playlistResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title           string    `json:"title"`
		Description     string    `json:"description"`
		DefaultLanguage string    `json:"defaultLanguage"`
		PublishedAt     time.Time `json:"publishedAt"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

type playlistItemResource struct {
	ID      string `json:"id"`
	Snippet struct {
		PlaylistID  string     `json:"playlistId"`
		Title       string     `json:"title"`
		Position    *int       `json:"position"`
		PublishedAt time.Time  `json:"publishedAt"`
		ResourceID  resourceID `json:"resourceId"`
	} `json:"snippet"`
	ContentDetails struct {
		Note string `json:"note"`
	} `json:"contentDetails"`
}

// page is the generic list envelope; Items stays raw so each list call can
// decode into its own resource type.
type page struct {
	NextPageToken string          `json:"nextPageToken"`
	Items         json.RawMessage `json:"items"`
}

// listPages follows nextPageToken until exhausted, invoking decode once per page.
func (y *YouTubeClient) listPages(ctx context.Context, endpoint string, decode func(items json.RawMessage) error) error {
	pageToken := ""
	for {
		ep := endpoint
		if pageToken != "" {
			ep += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var p page
		if err := y.doRequest(ctx, http.MethodGet, ep, nil, &p); err != nil {
			return err
		}
		if err := decode(p.Items); err != nil {
			return err
		}

		if p.NextPageToken == "" {
			return nil
		}
		pageToken = p.NextPageToken
	}
}

// ListSubscriptions retrieves all channel subscriptions of the account.
func (y *YouTubeClient) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	endpoint := fmt.Sprintf("/subscriptions?part=snippet&mine=true&order=alphabetical&maxResults=%d", maxResults)

	var subs []models.Subscription
	err := y.listPages(ctx, endpoint, func(items json.RawMessage) error {
		var resources []subscriptionResource
		if err := json.Unmarshal(items, &resources); err != nil {
			return fmt.Errorf("%w: failed to decode subscriptions: %v", shared.ErrUpstream, err)
		}
		for _, r := range resources {
			if r.ID == "" || r.Snippet.ResourceID.ChannelID == "" {
				return fmt.Errorf("%w: subscription resource missing id or channelId", shared.ErrUpstream)
			}
			subs = append(subs, models.Subscription{
				SubscriptionID: r.ID,
				ChannelID:      r.Snippet.ResourceID.ChannelID,
				Title:          r.Snippet.Title,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListPlaylists retrieves all playlists of the account.
func (y *YouTubeClient) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists?part=snippet%%2Cstatus&mine=true&maxResults=%d", maxResults)

	var playlists []models.Playlist
	err := y.listPages(ctx, endpoint, func(items json.RawMessage) error {
		var resources []playlistResource
		if err := json.Unmarshal(items, &resources); err != nil {
			return fmt.Errorf("%w: failed to decode playlists: %v", shared.ErrUpstream, err)
		}
		for _, r := range resources {
			pl, err := parsePlaylist(r)
			if err != nil {
				return err
			}
			playlists = append(playlists, pl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// parsePlaylist converts one raw API resource into a typed record, failing
// fast on missing required fields.
func parsePlaylist(r playlistResource) (models.Playlist, error) {
	if r.ID == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist resource missing id", shared.ErrUpstream)
	}
	if r.Snippet.Title == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist %s missing title", shared.ErrUpstream, r.ID)
	}

	privacy := models.PrivacyStatus(r.Status.PrivacyStatus)
	if !privacy.Valid() {
		privacy = models.PrivacyPrivate
	}

	return models.Playlist{
		PlaylistID:    r.ID,
		Title:         r.Snippet.Title,
		Description:   r.Snippet.Description,
		PrivacyStatus: privacy,
		DefaultLang:   r.Snippet.DefaultLanguage,
		UploadedAt:    r.Snippet.PublishedAt,
	}, nil
}

// ListPlaylistItems retrieves every item of the given playlist.
func (y *YouTubeClient) ListPlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}
	endpoint := fmt.Sprintf("/playlistItems?part=snippet%%2CcontentDetails&playlistId=%s&maxResults=%d",
		url.QueryEscape(playlistID), maxResults)

	var items []models.PlaylistItem
	err := y.listPages(ctx, endpoint, func(raw json.RawMessage) error {
		var resources []playlistItemResource
		if err := json.Unmarshal(raw, &resources); err != nil {
			return fmt.Errorf("%w: failed to decode playlist items: %v", shared.ErrUpstream, err)
		}
		for _, r := range resources {
			item, err := parsePlaylistItem(r, playlistID)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// parsePlaylistItem converts one raw API resource into a typed record.
func parsePlaylistItem(r playlistItemResource, playlistID string) (models.PlaylistItem, error) {
	if r.Snippet.ResourceID.VideoID == "" {
		return models.PlaylistItem{}, fmt.Errorf("%w: playlist item in %s missing resourceId.videoId", shared.ErrUpstream, playlistID)
	}
	if r.Snippet.Position == nil {
		return models.PlaylistItem{}, fmt.Errorf("%w: playlist item %s missing position", shared.ErrUpstream, r.Snippet.ResourceID.VideoID)
	}

	kind := r.Snippet.ResourceID.Kind
	if kind == "" {
		kind = "youtube#video"
	}

	return models.PlaylistItem{
		OriginatingPlaylistID: playlistID,
		Position:              *r.Snippet.Position,
		Note:                  r.ContentDetails.Note,
		ResourceID:            r.Snippet.ResourceID.VideoID,
		ResourceKind:          kind,
		Title:                 r.Snippet.Title,
		UploadedAt:            r.Snippet.PublishedAt,
	}, nil
}

// CreateSubscription subscribes the account to the given channel.
func (y *YouTubeClient) CreateSubscription(ctx context.Context, channelID string) error {
	if channelID == "" {
		return fmt.Errorf("%w: channel id is required", shared.ErrInvalidArgument)
	}

	body := map[string]any{
		"snippet": map[string]any{
			"resourceId": resourceID{Kind: "youtube#channel", ChannelID: channelID},
		},
	}
	return y.doRequest(ctx, http.MethodPost, "/subscriptions?part=snippet", body, nil)
}

// DeleteSubscription removes a subscription by resource id.
func (y *YouTubeClient) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("%w: subscription id is required", shared.ErrInvalidArgument)
	}
	endpoint := "/subscriptions?id=" + url.QueryEscape(subscriptionID)
	return y.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// CreatePlaylist creates a playlist and returns the destination-assigned id.
func (y *YouTubeClient) CreatePlaylist(ctx context.Context, playlist models.Playlist) (string, error) {
	if err := playlist.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	snippet := map[string]any{
		"title":       playlist.Title,
		"description": playlist.Description,
	}
	if playlist.DefaultLang != "" {
		snippet["defaultLanguage"] = playlist.DefaultLang
	}
	body := map[string]any{
		"snippet": snippet,
		"status":  map[string]any{"privacyStatus": string(playlist.PrivacyStatus)},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := y.doRequest(ctx, http.MethodPost, "/playlists?part=id%2Csnippet%2Cstatus", body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create playlist response missing id", shared.ErrUpstream)
	}
	return created.ID, nil
}

// CreatePlaylistItem inserts one item under item.DestinationPlaylistID.
func (y *YouTubeClient) CreatePlaylistItem(ctx context.Context, item models.PlaylistItem) error {
	if item.DestinationPlaylistID == "" {
		return fmt.Errorf("%w: destination playlist id is required", shared.ErrInvalidArgument)
	}
	if item.ResourceID == "" {
		return fmt.Errorf("%w: resource id is required", shared.ErrInvalidArgument)
	}

	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": item.DestinationPlaylistID,
			"resourceId": resourceID{Kind: item.ResourceKind, VideoID: item.ResourceID},
			"position":   item.Position,
		},
	}
	if item.Note != "" {
		body["contentDetails"] = map[string]any{"note": item.Note}
	}

	return y.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet%2CcontentDetails", body, nil)
}
