package repositories

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// HistoryRecorder writes scrape and build history without failing its caller.
//
// Persistence errors are logged and swallowed. A nil *HistoryRecorder records nothing.
type HistoryRecorder struct {
	scrapes *ScrapeRepository
	builds  *BuildRepository
	logger  *log.Logger
}

// NewHistoryRecorder creates a HistoryRecorder over the given repositories. Either may be nil to skip that history.
func NewHistoryRecorder(scrapes *ScrapeRepository, builds *BuildRepository, logger *log.Logger) *HistoryRecorder {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &HistoryRecorder{scrapes: scrapes, builds: builds, logger: shared.WithLogger(logger, "component", "history")}
}

// RecordScrape stores result and returns the new record's ID, or "" when nothing was stored.
func (h *HistoryRecorder) RecordScrape(source, url string, result *models.Result) string {
	if h == nil || h.scrapes == nil || result == nil {
		return ""
	}

	scrape := models.NewScrape(source, url, result)
	if err := h.scrapes.Create(scrape); err != nil {
		h.logger.Warn("failed to record scrape", "url", url, "error", err)
		return ""
	}

	h.logger.Debug("recorded scrape", "id", scrape.ID(), "sequence", scrape.Sequence(), "songs", scrape.SongCount())
	return scrape.ID()
}

// RecordBuild stores the outcome of a playlist build and returns the new record's ID, or "" when nothing was stored.
func (h *HistoryRecorder) RecordBuild(scrapeID, playlistID, name string, added, skipped, failed int) string {
	if h == nil || h.builds == nil {
		return ""
	}

	build := models.NewBuild(scrapeID, playlistID, name, added, skipped, failed)
	if err := h.builds.Create(build); err != nil {
		h.logger.Warn("failed to record build", "playlist", playlistID, "error", err)
		return ""
	}
	return build.ID()
}
