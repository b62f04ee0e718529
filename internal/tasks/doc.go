// Package tasks orchestrates work against the scraper and YouTube with real-time progress reporting.
//
// # Core Operations
//
//  1. [PlaylistEngine.Build] : songs → YouTube playlist
//     - Caps the song list (20 by default)
//     - Creates the playlist, then searches each "Artist - Title" string and inserts the first hit
//     - Records every song as added, skipped (no hit) or failed (API error)
//     - Searches are paced by a [rate.Limiter] to stay inside the API quota
//
//  2. [PlaylistEngine.BatchScrape] : many URLs → one export per page plus manifest.json
//     - A bounded worker pool ([errgroup.Group] with SetLimit) fetches pages concurrently
//     - Page order in the manifest follows the input order
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # History
//
// The optional [Recorder] (repositories.HistoryRecorder) stores scrapes and builds. Recording never fails an
// operation.
package tasks
