// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one tracklist page through to a YouTube playlist:
//  1. [ScrapeView] : Fetch and extract the page behind a spinner
//  2. [SongListView] : Review the songs, toggling any to leave out with space
//  3. [ConfirmView] : Name the playlist and confirm
//  4. [BuildView] : Monitor real-time progress updates
//  5. [ResultView] : Display the playlist URL and the added, skipped and failed counts
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during builds.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
