// Package services defines the [Service] interface for the playlist provider and implements it for YouTube.
//
// # Service Interface
//
// A build only needs three calls: search one song, create a playlist, append a video. Keeping the interface that
// small lets the playlist builder in tasks run against a hand-written mock in tests.
//
// # YouTube Implementation
//
// [YouTubeService] talks to the YouTube Data API v3 over plain JSON:
//   - search: GET /youtube/v3/search (type=video, maxResults=1)
//   - playlists: POST /youtube/v3/playlists (snippet, status)
//   - playlistItems: POST /youtube/v3/playlistItems (snippet)
//
// The base URL is configurable so tests can point it at an [httptest.Server].
//
// # Authentication
//
// [OAuthConfig] builds an installed-app OAuth2 config for Google with the youtube scope. The CLI completes the
// authorization code flow through the callback handler in the server package and stores the token with [SaveToken];
// later runs load it with [LoadToken] and wrap it with [NewYouTubeClient], which refreshes the access token on demand.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : missing token file or a 401 from the API
//   - [shared.ErrTrackNotFound] : search returned no videos
//   - [shared.ErrPlaylistNotFound] : playlist id unknown to the API
//   - [shared.ErrAPIRequest] : any other transport or non-2xx failure, with Google's message
package services
