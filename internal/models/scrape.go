package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Scrape sources
const (
	SourceURL    = "url"
	SourceUpload = "upload"
)

var (
	_ Model = (*Scrape)(nil)
	_ Model = (*Build)(nil)
)

// Scrape is a persisted extraction.
type Scrape struct {
	id        string
	sequence  int
	source    string
	url       string
	strategy  string
	songs     []Song
	errMsg    string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewScrape records result for the given source ("url" or "upload") and URL.
func NewScrape(source, url string, result *Result) *Scrape {
	now := time.Now().UTC()
	s := &Scrape{source: source, url: url, createdAt: now, updatedAt: now, songs: []Song{}}
	if result != nil {
		s.strategy = result.Strategy
		s.errMsg = result.Error
		s.songs = append(s.songs, result.Songs...)
	}
	return s
}

// RestoreScrape rebuilds a [Scrape] from stored columns.
func RestoreScrape(id string, sequence int, source, url, strategy, songsJSON, errMsg string, createdAt, updatedAt time.Time, deletedAt *time.Time) (*Scrape, error) {
	var songs []Song
	if err := json.Unmarshal([]byte(songsJSON), &songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs for scrape %s: %w", id, err)
	}
	if songs == nil {
		songs = []Song{}
	}
	return &Scrape{
		id:        id,
		sequence:  sequence,
		source:    source,
		url:       url,
		strategy:  strategy,
		songs:     songs,
		errMsg:    errMsg,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}, nil
}

func (s *Scrape) ID() string            { return s.id }
func (s *Scrape) SetID(id string)       { s.id = id }
func (s *Scrape) Sequence() int         { return s.sequence }
func (s *Scrape) SetSequence(n int)     { s.sequence = n }
func (s *Scrape) Source() string        { return s.source }
func (s *Scrape) URL() string           { return s.url }
func (s *Scrape) Strategy() string      { return s.strategy }
func (s *Scrape) Songs() []Song         { return s.songs }
func (s *Scrape) SongCount() int        { return len(s.songs) }
func (s *Scrape) Error() string         { return s.errMsg }
func (s *Scrape) CreatedAt() time.Time  { return s.createdAt }
func (s *Scrape) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Scrape) DeletedAt() *time.Time { return s.deletedAt }

func (s *Scrape) SetUpdatedAt(t time.Time) { s.updatedAt = t }

// SetResult replaces the stored outcome with result.
func (s *Scrape) SetResult(result *Result) {
	s.strategy = result.Strategy
	s.errMsg = result.Error
	s.songs = append([]Song{}, result.Songs...)
}

// SongsJSON encodes the songs for storage.
func (s *Scrape) SongsJSON() (string, error) {
	data, err := json.Marshal(s.songs)
	if err != nil {
		return "", fmt.Errorf("failed to encode songs: %w", err)
	}
	return string(data), nil
}

// Result converts the record back into an extraction [Result].
func (s *Scrape) Result() *Result {
	if s.errMsg != "" || len(s.songs) == 0 {
		return &Result{Songs: []Song{}, Error: s.errMsg}
	}
	return NewSuccess(append([]Song(nil), s.songs...), s.strategy)
}

// Validate checks the source and that exactly one of songs or error is present.
func (s *Scrape) Validate() error {
	if s.source != SourceURL && s.source != SourceUpload {
		return fmt.Errorf("invalid scrape source %q", s.source)
	}
	if s.source == SourceURL && s.url == "" {
		return fmt.Errorf("url scrape requires a url")
	}
	if (len(s.songs) > 0) == (s.errMsg != "") {
		return fmt.Errorf("scrape must carry either songs or an error")
	}
	return nil
}

// Build is a persisted playlist build.
type Build struct {
	id         string
	sequence   int
	scrapeID   string
	playlistID string
	name       string
	added      int
	skipped    int
	failed     int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewBuild records a created playlist and its per-song tallies.
func NewBuild(scrapeID, playlistID, name string, added, skipped, failed int) *Build {
	now := time.Now().UTC()
	return &Build{
		scrapeID:   scrapeID,
		playlistID: playlistID,
		name:       name,
		added:      added,
		skipped:    skipped,
		failed:     failed,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreBuild rebuilds a [Build] from stored columns.
func RestoreBuild(id string, sequence int, scrapeID, playlistID, name string, added, skipped, failed int, createdAt, updatedAt time.Time, deletedAt *time.Time) *Build {
	return &Build{
		id:         id,
		sequence:   sequence,
		scrapeID:   scrapeID,
		playlistID: playlistID,
		name:       name,
		added:      added,
		skipped:    skipped,
		failed:     failed,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (b *Build) ID() string           { return b.id }
func (b *Build) SetID(id string)      { b.id = id }
func (b *Build) Sequence() int        { return b.sequence }
func (b *Build) SetSequence(n int)    { b.sequence = n }
func (b *Build) ScrapeID() string     { return b.scrapeID }
func (b *Build) PlaylistID() string   { return b.playlistID }
func (b *Build) Name() string         { return b.name }
func (b *Build) Added() int           { return b.added }
func (b *Build) Skipped() int         { return b.skipped }
func (b *Build) Failed() int          { return b.failed }
func (b *Build) CreatedAt() time.Time { return b.createdAt }
func (b *Build) UpdatedAt() time.Time { return b.updatedAt }

func (b *Build) SetUpdatedAt(t time.Time) { b.updatedAt = t }

// SetTallies replaces the per-song outcome counts.
func (b *Build) SetTallies(added, skipped, failed int) {
	b.added, b.skipped, b.failed = added, skipped, failed
}

// Validate requires a playlist ID, a name and non-negative tallies.
func (b *Build) Validate() error {
	if b.playlistID == "" {
		return fmt.Errorf("build requires a playlist id")
	}
	if b.name == "" {
		return fmt.Errorf("build requires a name")
	}
	if b.added < 0 || b.skipped < 0 || b.failed < 0 {
		return fmt.Errorf("build tallies must not be negative")
	}
	return nil
}
