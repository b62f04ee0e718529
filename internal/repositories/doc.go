// Package repositories implements SQLite persistence for scrape and playlist build history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
// Missing records are reported with [shared.ErrRecordNotFound].
//
// Key Implementations:
//   - [ScrapeRepository] : one row per extraction, songs stored as a JSON array
//   - [BuildRepository] : one row per YouTube playlist created from a scrape
//   - [HistoryRecorder] : fire-and-forget adapter used by the HTTP server and the playlist builder
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables;
// `setlist history show 42` resolves scrape #42 through it.
package repositories
