package tasks

import (
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScrapePages Phase = iota
	CreatePlaylist
	SearchTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case ScrapePages:
		return "scrape_pages"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func createDestinationUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on YouTube...", name),
	}
}

func createPlaylistUpdate(pl *services.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Title, pl.ID),
		Data:    pl,
	}
}

func searchTrackUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, song.Combined),
	}
}

func songOutcomeUpdate(step, total int, res SongResult) ProgressUpdate {
	mark := "✓"
	switch res.Outcome {
	case OutcomeSkipped:
		mark = "–"
	case OutcomeFailed:
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, res.Song.Combined),
		Data:    res,
	}
}

func buildCompleteUpdate(res *BuildResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d, skipped %d, failed %d: %s", res.Added, res.Skipped, res.Failed, res.URL),
		Data:    res,
	}
}

func scrapingPageUpdate(step, total int, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScrapePages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Scraping %s...", step, total, url),
	}
}

func scrapeCompletedUpdate(step, total int, res PageResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, res.URL, res.Count)
	if res.Error != "" {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.URL, res.Error)
	}
	return ProgressUpdate{
		Phase:   ScrapePages,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}
