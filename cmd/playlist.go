package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

type buildSummary struct {
	PlaylistID string        `json:"playlist_id"`
	URL        string        `json:"url"`
	Name       string        `json:"name"`
	Added      int           `json:"added"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Truncated  int           `json:"truncated,omitempty"`
	Songs      []songOutcome `json:"songs"`
	Error      string        `json:"error,omitempty"`
}

type songOutcome struct {
	Song    string `json:"song"`
	Outcome string `json:"outcome"`
	VideoID string `json:"video_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PlaylistBuild turns a tracklist into a YouTube playlist.
//
// The songs come from scraping --url or from the saved scrape named by --from. The build continues past songs that
// cannot be found or added; the summary lists them.
func (r *Runner) PlaylistBuild(ctx context.Context, cmd *cli.Command) error {
	pageURL, from := cmd.String("url"), cmd.String("from")
	switch {
	case pageURL == "" && from == "":
		return fmt.Errorf("%w: --url or --from", shared.ErrMissingArgument)
	case pageURL != "" && from != "":
		return fmt.Errorf("%w: cannot specify both --url and --from", shared.ErrInvalidArgument)
	}

	privacy := cmd.String("privacy")
	if privacy != "" && !services.ValidPrivacy(privacy) {
		return fmt.Errorf("%w: privacy must be private, unlisted or public", shared.ErrInvalidFlag)
	}

	youtube, err := r.youtubeService(ctx)
	if err != nil {
		return err
	}

	h, err := r.openHistory(from != "")
	if err != nil {
		return err
	}
	defer h.Close()

	var recorder tasks.Recorder
	if h != nil {
		recorder = h.recorder
	}

	songs, scrapeID, source, err := r.buildSource(ctx, h, pageURL, from)
	if err != nil {
		return err
	}

	name := cmd.String("name")
	if name == "" {
		name = defaultPlaylistName(source, time.Now())
	}
	description := cmd.String("description")
	if description == "" && source != "" {
		description = "Built by setlist from " + source
	}

	useJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if !useJSON {
				r.printProgress(update)
			}
		}
	}()

	engine := r.newEngine(youtube, recorder)
	result, err := engine.Build(ctx, progress, tasks.BuildRequest{
		Name:        name,
		Description: description,
		Privacy:     privacy,
		Songs:       songs,
		ScrapeID:    scrapeID,
	})
	close(progress)
	<-done

	if result == nil {
		return err
	}

	summary := newBuildSummary(name, result, err)
	if useJSON {
		if werr := r.writeJSON(summary, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Playlist Complete!")
	r.writePlain("Playlist: %s\n", summary.Name)
	r.writePlain("URL: %s\n", summary.URL)
	r.writePlain("Added: %d/%d\n", summary.Added, len(summary.Songs))
	if summary.Truncated > 0 {
		r.writePlain("Dropped %d songs over the playlist limit\n", summary.Truncated)
	}

	if summary.Skipped+summary.Failed > 0 {
		r.writePlainln("Not added (%d):", summary.Skipped+summary.Failed)
		for _, s := range summary.Songs {
			switch s.Outcome {
			case string(tasks.OutcomeSkipped):
				r.writePlain("  - %s (no match)\n", s.Song)
			case string(tasks.OutcomeFailed):
				r.writePlain("  - %s (%s)\n", s.Song, s.Error)
			}
		}
	}
	return err
}

// buildSource resolves the songs to build from and the scrape they belong to.
func (r *Runner) buildSource(ctx context.Context, h *history, pageURL, from string) ([]models.Song, string, string, error) {
	if from != "" {
		scrape, err := lookupScrape(h.scrapes, from)
		if err != nil {
			return nil, "", "", err
		}
		if scrape.SongCount() == 0 {
			return nil, "", "", fmt.Errorf("%w: scrape #%d has no songs", shared.ErrNoSongsFound, scrape.Sequence())
		}
		return scrape.Songs(), scrape.ID(), scrape.URL(), nil
	}

	r.logger.Info("scraping", "url", pageURL)
	result, err := r.newScraper().Scrape(ctx, pageURL)
	if err != nil {
		return nil, "", "", err
	}

	var scrapeID string
	if h != nil {
		scrapeID = h.recorder.RecordScrape(models.SourceURL, pageURL, result)
	}
	if !result.OK() {
		return nil, "", "", fmt.Errorf("%w: %s", result.Reason(), result.Error)
	}

	r.logger.Info("tracklist extracted", "songs", result.Count, "strategy", result.Strategy)
	return result.Songs, scrapeID, pageURL, nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.CreatePlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	case tasks.SearchTracks:
		if _, ok := update.Data.(tasks.SongResult); ok {
			r.writePlain("   %s\n", update.Message)
		} else if update.Step == 1 {
			r.writePlain("\n🔍 Searching YouTube for %d songs\n", update.Total)
		}
	}
}

func newBuildSummary(name string, result *tasks.BuildResult, err error) buildSummary {
	summary := buildSummary{
		URL:       result.URL,
		Name:      name,
		Added:     result.Added,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Truncated: result.Truncated,
		Songs:     make([]songOutcome, len(result.Songs)),
	}
	if result.Playlist != nil {
		summary.PlaylistID = result.Playlist.ID
		summary.Name = result.Playlist.Title
	}
	if err != nil {
		summary.Error = err.Error()
	}

	for i, s := range result.Songs {
		outcome := songOutcome{Song: s.Song.Combined, Outcome: string(s.Outcome)}
		if s.Match != nil {
			outcome.VideoID = s.Match.VideoID
		}
		if s.Error != nil {
			outcome.Error = s.Error.Error()
		}
		summary.Songs[i] = outcome
	}
	return summary
}

// defaultPlaylistName names a playlist after the host it was scraped from, e.g. "example.com 2026-10-19".
func defaultPlaylistName(source string, now time.Time) string {
	date := now.Format(time.DateOnly)
	if u, err := url.Parse(source); err == nil && u.Hostname() != "" {
		return u.Hostname() + " " + date
	}
	return "Setlist " + date
}

func playlistLink(id string) string {
	if id == "" {
		return ""
	}
	return services.PlaylistURL(id)
}
