package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
)

type scrapeView struct {
	ID        string        `json:"id"`
	Sequence  int           `json:"sequence"`
	Source    string        `json:"source"`
	URL       string        `json:"url"`
	Strategy  string        `json:"strategy,omitempty"`
	Count     int           `json:"count"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Songs     []models.Song `json:"songs,omitempty"`
	Builds    []buildView   `json:"builds,omitempty"`
}

type buildView struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlist_id"`
	Name       string    `json:"name"`
	Added      int       `json:"added"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	CreatedAt  time.Time `json:"created_at"`
}

func newScrapeView(s *models.Scrape) scrapeView {
	return scrapeView{
		ID:        s.ID(),
		Sequence:  s.Sequence(),
		Source:    s.Source(),
		URL:       s.URL(),
		Strategy:  s.Strategy(),
		Count:     s.SongCount(),
		Error:     s.Error(),
		CreatedAt: s.CreatedAt(),
	}
}

func newBuildView(b *models.Build) buildView {
	return buildView{
		ID:         b.ID(),
		PlaylistID: b.PlaylistID(),
		Name:       b.Name(),
		Added:      b.Added(),
		Skipped:    b.Skipped(),
		Failed:     b.Failed(),
		CreatedAt:  b.CreatedAt(),
	}
}

// HistoryList lists recent scrapes, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	h, err := r.openHistory(true)
	if err != nil {
		return err
	}
	defer h.Close()

	criteria := map[string]any{
		"limit":  cmd.Int("limit"),
		"source": cmd.String("source"),
	}
	if cmd.Bool("failed") {
		criteria["failed"] = true
	}

	scrapes, err := h.scrapes.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]scrapeView, len(scrapes))
		for i, s := range scrapes {
			views[i] = newScrapeView(s)
		}
		return r.writeJSON(views, true)
	}

	if len(scrapes) == 0 {
		return r.writePlain("No scrapes recorded yet.\n")
	}

	r.writePlainHeader(fmt.Sprintf("History (%d)", len(scrapes)))
	for _, s := range scrapes {
		status := fmt.Sprintf("%d songs via %s", s.SongCount(), s.Strategy())
		if s.Error() != "" {
			status = "✗ " + s.Error()
		}
		r.writePlain("#%-4d %s  [%s] %s\n      %s\n", s.Sequence(), s.CreatedAt().Local().Format(time.DateTime), s.Source(), s.URL(), status)
	}
	return nil
}

// HistoryShow prints one scrape with its songs and the playlists built from it.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	h, err := r.openHistory(true)
	if err != nil {
		return err
	}
	defer h.Close()

	scrape, err := lookupScrape(h.scrapes, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	builds, err := h.builds.List(map[string]any{"scrape_id": scrape.ID()})
	if err != nil {
		return err
	}

	view := newScrapeView(scrape)
	view.Songs = scrape.Songs()
	for _, b := range builds {
		view.Builds = append(view.Builds, newBuildView(b))
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, true)
	}

	r.writePlainHeader(fmt.Sprintf("Scrape #%d", view.Sequence))
	r.writePlain("ID:       %s\n", view.ID)
	r.writePlain("URL:      %s\n", view.URL)
	r.writePlain("Source:   %s\n", view.Source)
	r.writePlain("Date:     %s\n", view.CreatedAt.Local().Format(time.DateTime))
	if view.Error != "" {
		r.writePlain("Error:    %s\n", view.Error)
	} else {
		r.writePlain("Strategy: %s\n", view.Strategy)
		r.writePlainln("Songs (%d):", view.Count)
		for i, song := range view.Songs {
			r.writePlain("%3d. %s\n", i+1, song.Combined)
		}
	}

	if len(view.Builds) > 0 {
		r.writePlainln("Playlists:")
		for _, b := range view.Builds {
			r.writePlain("  %s  %s (%d added, %d skipped, %d failed)\n", b.Name, playlistLink(b.PlaylistID), b.Added, b.Skipped, b.Failed)
		}
	}
	return nil
}

// HistoryDelete soft-deletes a scrape.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	h, err := r.openHistory(true)
	if err != nil {
		return err
	}
	defer h.Close()

	scrape, err := lookupScrape(h.scrapes, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := h.scrapes.Delete(scrape.ID()); err != nil {
		return err
	}

	r.logger.Info("scrape deleted", "id", scrape.ID())
	return r.writePlain("✓ Deleted scrape #%d (%s)\n", scrape.Sequence(), scrape.URL())
}

// lookupScrape resolves a history reference: a sequence number such as "12" or "#12", or a scrape ID.
func lookupScrape(repo *repositories.ScrapeRepository, ref string) (*models.Scrape, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	trimmed := ref
	if trimmed[0] == '#' {
		trimmed = trimmed[1:]
	}
	if seq, err := strconv.Atoi(trimmed); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(ref)
}
