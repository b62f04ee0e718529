// package services defines interface Service for creating playlists on a video platform
package services

import (
	"context"
	"fmt"
)

// Privacy statuses accepted by [Service.CreatePlaylist].
const (
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
	PrivacyPublic   = "public"
)

// Service defines the interface for a provider that can find a song and collect the matches into a playlist.
type Service interface {
	// SearchTrack returns the best match for a free-text query such as "Artist - Title".
	// Returns [shared.ErrTrackNotFound] when the search has no results.
	SearchTrack(ctx context.Context, query string) (*Track, error)

	// CreatePlaylist creates an empty playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, title, description, privacy string) (*Playlist, error)

	// AddToPlaylist appends a video to the end of a playlist.
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error

	// Name returns the name of the service (e.g., "YouTube")
	Name() string
}

// Playlist represents a playlist created on the service
type Playlist struct {
	ID          string
	Title       string
	Description string
	Privacy     string
}

// URL returns the public watch page of the playlist.
func (p Playlist) URL() string {
	return PlaylistURL(p.ID)
}

// PlaylistURL returns the YouTube playlist page for id.
func PlaylistURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/playlist?list=%s", id)
}

// Track represents a search hit
type Track struct {
	VideoID string
	Title   string
	Channel string
}

// ValidPrivacy reports whether p is a privacy status the service accepts.
func ValidPrivacy(p string) bool {
	switch p {
	case PrivacyPrivate, PrivacyUnlisted, PrivacyPublic:
		return true
	}
	return false
}
