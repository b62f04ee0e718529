package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/ui"
)

// TUI scrapes a page, lets the user review the songs and builds the playlist interactively.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	pageURL := cmd.StringArg("url")
	if pageURL == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	// Logs go to a file so they do not tear the TUI rendering.
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	youtube, err := r.youtubeService(ctx)
	if err != nil {
		return err
	}

	h, recorder := r.optionalRecorder()
	defer h.Close()

	name := cmd.String("name")
	if name == "" {
		name = defaultPlaylistName(pageURL, time.Now())
	}

	model := ui.NewModel(ctx, ui.Options{
		URL:      pageURL,
		Scraper:  r.newScraper(),
		Engine:   r.newEngine(youtube, recorder),
		Recorder: recorder,
		Name:     name,
		Privacy:  r.config.Playlist.Privacy,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		return err
	}
	if res := model.Result(); res != nil {
		r.writePlain("✓ Playlist ready: %s\n", res.URL)
		r.writePlain("Added %d, skipped %d, failed %d\n", res.Added, res.Skipped, res.Failed)
	}
	return nil
}
