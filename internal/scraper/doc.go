// Package scraper extracts tracklists ("Artist - Title" entries) from HTML pages of unknown structure.
//
// # Pipeline
//
// [Scraper.Scrape] validates the URL, performs one GET, and hands the body to [Scraper.Extract]:
//
//  1. The document is parsed with goquery.
//  2. [Cascade] runs the [Strategy] list in order and stops at the first one that yields any song.
//  3. Every candidate passes through [Filter.Valid] as it is discovered.
//  4. [Dedupe] keeps the first song for each [NormalizeKey].
//  5. The result is truncated to the configured maximum (20 by default).
//
// # Strategies
//
// From most to least reliable:
//   - [StructuredData] : schema.org MusicPlaylist JSON-LD
//   - [Tables] : rows of 4 cells (rank, artist, title, other) or 2-3 cells (artist, title)
//   - [KnownClasses] : class names used by chart and discography sites
//   - [ListItems] : "Artist - Title" list items
//   - [Headings] : h2/h3/h4 titles with a following artist element
//
// # Errors
//
// Expected failures (bad URL, failed fetch, no songs) come back as a [models.Result] with Error set and a nil
// error; [models.Result.Reason] returns [shared.ErrInvalidURL], [shared.ErrFetchFailed] or [shared.ErrNoSongsFound].
// Only faults such as an HTML parse failure are returned as errors, wrapping [shared.ErrUnexpected].
package scraper
