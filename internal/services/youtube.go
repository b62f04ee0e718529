// YouTube Data API v3 implementation of [Service]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/setlist/internal/shared"
)

const defaultYTBaseURL string = "https://www.googleapis.com"

type youtubeSnippet struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ChannelTitle string `json:"channelTitle,omitempty"`
}

type youtubeSearchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []youtubeSearchItem `json:"items"`
}

type youtubeStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

// YouTubePlaylist is the playlists resource as sent to and returned by the API.
type YouTubePlaylist struct {
	ID      string         `json:"id,omitempty"`
	Snippet youtubeSnippet `json:"snippet"`
	Status  youtubeStatus  `json:"status"`
}

type youtubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubePlaylistItem struct {
	Snippet struct {
		PlaylistID string            `json:"playlistId"`
		ResourceID youtubeResourceID `json:"resourceId"`
	} `json:"snippet"`
}

type youtubeError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeService implements the Service interface for the YouTube Data API.
//
// The HTTP client is expected to carry OAuth credentials, see [NewYouTubeClient].
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube service instance.
func NewYouTubeService(baseURL string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// apiError maps a non-2xx response to a sentinel, keeping Google's message when the body has one.
func apiError(resp *http.Response) error {
	var errResp youtubeError
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	msg := errResp.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	reason := ""
	if len(errResp.Error.Errors) > 0 {
		reason = errResp.Error.Errors[0].Reason
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	case resp.StatusCode == http.StatusNotFound && reason == "playlistNotFound":
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, msg)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && (reason == "quotaExceeded" || reason == "rateLimitExceeded"):
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, msg)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, msg)
	default:
		return fmt.Errorf("%w: youtube API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}
}

// SearchTrack searches for videos matching query, returning the first hit.
//
// Calls GET /youtube/v3/search?part=snippet&type=video&maxResults=1&q={query}.
func (y *YouTubeService) SearchTrack(ctx context.Context, query string) (*Track, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("q", query)

	var resp youtubeSearchResponse
	if err := y.doRequest(ctx, http.MethodGet, "/youtube/v3/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		return &Track{
			VideoID: item.ID.VideoID,
			Title:   item.Snippet.Title,
			Channel: item.Snippet.ChannelTitle,
		}, nil
	}
	return nil, fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, query)
}

// CreatePlaylist creates a playlist for the authenticated channel.
//
// Calls POST /youtube/v3/playlists?part=snippet,status.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description, privacy string) (*Playlist, error) {
	if privacy == "" {
		privacy = PrivacyPrivate
	}
	if !ValidPrivacy(privacy) {
		return nil, fmt.Errorf("%w: privacy must be private, unlisted or public, got %q", shared.ErrInvalidInput, privacy)
	}

	body := YouTubePlaylist{
		Snippet: youtubeSnippet{Title: title, Description: description},
		Status:  youtubeStatus{PrivacyStatus: privacy},
	}

	var created YouTubePlaylist
	if err := y.doRequest(ctx, http.MethodPost, "/youtube/v3/playlists?part=snippet,status", body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: playlist created without an id", shared.ErrAPIRequest)
	}

	return &Playlist{
		ID:          created.ID,
		Title:       created.Snippet.Title,
		Description: created.Snippet.Description,
		Privacy:     created.Status.PrivacyStatus,
	}, nil
}

// AddToPlaylist inserts videoID at the end of playlistID.
//
// Calls POST /youtube/v3/playlistItems?part=snippet.
func (y *YouTubeService) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	var item youtubePlaylistItem
	item.Snippet.PlaylistID = playlistID
	item.Snippet.ResourceID = youtubeResourceID{Kind: "youtube#video", VideoID: videoID}

	return y.doRequest(ctx, http.MethodPost, "/youtube/v3/playlistItems?part=snippet", item, nil)
}
