package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

const (
	DefaultMaxSongs          = 20
	DefaultRequestsPerSecond = 2.0
)

// Per-song outcome of a build.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeSkipped Outcome = "skipped" // no search result
	OutcomeFailed  Outcome = "failed"  // API error while searching or inserting
)

// Scraper fetches a page and extracts its tracklist.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*models.Result, error)
}

// Recorder persists history. Implementations log their own failures.
type Recorder interface {
	RecordScrape(source, url string, result *models.Result) string
	RecordBuild(scrapeID, playlistID, name string, added, skipped, failed int) string
}

// SongResult is the outcome for one song of a build.
type SongResult struct {
	Song    models.Song
	Outcome Outcome
	Match   *services.Track // nil unless a search hit was found
	Error   error
}

// BuildRequest describes the playlist to create.
type BuildRequest struct {
	Name        string
	Description string
	Privacy     string // defaults to the engine's privacy
	Songs       []models.Song
	ScrapeID    string // history record the songs came from, if any
}

// BuildResult contains all data from a playlist build.
type BuildResult struct {
	Playlist  *services.Playlist
	URL       string
	Songs     []SongResult
	Added     int
	Skipped   int
	Failed    int
	Truncated int // songs dropped by the per-build cap
}

// EngineOpts configures a [PlaylistEngine]. Zero values take the package defaults.
type EngineOpts struct {
	MaxSongs          int
	RequestsPerSecond float64
	Privacy           string
	Recorder          Recorder
	Logger            *log.Logger
}

// PlaylistEngine builds YouTube playlists from songs and runs batch scrapes.
type PlaylistEngine struct {
	youtube  services.Service
	limiter  *rate.Limiter
	maxSongs int
	privacy  string
	recorder Recorder
	logger   *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. youtube may be nil for scrape-only use.
func NewPlaylistEngine(youtube services.Service, opts EngineOpts) *PlaylistEngine {
	if opts.MaxSongs <= 0 {
		opts.MaxSongs = DefaultMaxSongs
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Privacy == "" {
		opts.Privacy = services.PrivacyPrivate
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &PlaylistEngine{
		youtube:  youtube,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		maxSongs: opts.MaxSongs,
		privacy:  opts.Privacy,
		recorder: opts.Recorder,
		logger:   shared.WithLogger(opts.Logger, "component", "tasks"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Build creates a playlist and fills it with the first search hit for each song.
//
// Songs beyond the engine's cap are dropped. A song with no search result is skipped; an API error on one song marks
// it failed and the build continues. Cancelling ctx stops the build and returns the partial result with the context
// error.
func (e *PlaylistEngine) Build(ctx context.Context, progress chan<- ProgressUpdate, req BuildRequest) (*BuildResult, error) {
	if e.youtube == nil {
		return nil, fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}
	if len(req.Songs) == 0 {
		return nil, fmt.Errorf("%w: no songs to add", shared.ErrInvalidInput)
	}

	songs := req.Songs
	result := &BuildResult{}
	if len(songs) > e.maxSongs {
		result.Truncated = len(songs) - e.maxSongs
		songs = songs[:e.maxSongs]
	}

	name := req.Name
	if name == "" {
		name = "Setlist " + time.Now().Format("2006-01-02")
	}
	privacy := req.Privacy
	if privacy == "" {
		privacy = e.privacy
	}

	e.sendProgress(progress, createDestinationUpdate(name))

	playlist, err := e.youtube.CreatePlaylist(ctx, name, req.Description, privacy)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	result.Playlist = playlist
	result.URL = playlist.URL()
	result.Songs = make([]SongResult, 0, len(songs))

	e.sendProgress(progress, createPlaylistUpdate(playlist))
	e.logger.Info("playlist created", "id", playlist.ID, "songs", len(songs), "truncated", result.Truncated)

	total := len(songs)
	for i, song := range songs {
		if err := e.limiter.Wait(ctx); err != nil {
			e.record(req.ScrapeID, name, result)
			return result, fmt.Errorf("build interrupted after %d of %d songs: %w", i, total, ctxErr(ctx, err))
		}

		e.sendProgress(progress, searchTrackUpdate(i+1, total, song))

		res := e.addSong(ctx, playlist.ID, song)
		if ctx.Err() != nil && res.Outcome == OutcomeFailed {
			e.record(req.ScrapeID, name, result)
			return result, fmt.Errorf("build interrupted after %d of %d songs: %w", i, total, ctx.Err())
		}

		result.Songs = append(result.Songs, res)
		switch res.Outcome {
		case OutcomeAdded:
			result.Added++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailed:
			result.Failed++
			e.logger.Warn("song failed", "song", song.Combined, "error", res.Error)
		}

		e.sendProgress(progress, songOutcomeUpdate(i+1, total, res))
	}

	e.record(req.ScrapeID, name, result)
	e.sendProgress(progress, buildCompleteUpdate(result))
	return result, nil
}

func (e *PlaylistEngine) addSong(ctx context.Context, playlistID string, song models.Song) SongResult {
	res := SongResult{Song: song}

	track, err := e.youtube.SearchTrack(ctx, song.Combined)
	switch {
	case errors.Is(err, shared.ErrTrackNotFound):
		res.Outcome = OutcomeSkipped
		return res
	case err != nil:
		res.Outcome = OutcomeFailed
		res.Error = err
		return res
	}
	res.Match = track

	if err := e.youtube.AddToPlaylist(ctx, playlistID, track.VideoID); err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err
		return res
	}

	res.Outcome = OutcomeAdded
	return res
}

func (e *PlaylistEngine) record(scrapeID, name string, result *BuildResult) {
	if e.recorder == nil || result.Playlist == nil {
		return
	}
	e.recorder.RecordBuild(scrapeID, result.Playlist.ID, name, result.Added, result.Skipped, result.Failed)
}

// ctxErr prefers the context's own error over the limiter's wrapper.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
