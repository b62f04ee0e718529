package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// Scrape fetches a page and prints or writes its tracklist. With --batch it scrapes every URL in the file instead.
//
// A page without songs is an error so scripts can detect it from the exit status.
func (r *Runner) Scrape(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if batch := cmd.String("batch"); batch != "" {
		return r.scrapeBatch(ctx, cmd, batch)
	}

	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url (or --batch file)", shared.ErrMissingArgument)
	}

	var h *history
	if cmd.Bool("record") {
		h, _ = r.optionalRecorder()
		defer h.Close()
	}

	r.logger.Info("scraping", "url", url)
	result, err := r.newScraper().Scrape(ctx, url)
	if err != nil {
		return err
	}

	if h != nil {
		if id := h.recorder.RecordScrape(models.SourceURL, url, result); id != "" {
			r.logger.Debug("scrape saved", "id", id)
		}
	}

	if !result.OK() {
		return fmt.Errorf("%w: %s", result.Reason(), result.Error)
	}

	r.logger.Info("tracklist extracted", "songs", result.Count, "strategy", result.Strategy)
	return r.export(formatter.Tracklist{Title: url, Source: url, Result: result}, format, cmd.String("output"))
}

// Extract runs the extraction pipeline over a saved HTML file.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	result, err := r.newScraper().ExtractHTML(string(data))
	if err != nil {
		return err
	}
	if !result.OK() {
		return fmt.Errorf("%w: %s", result.Reason(), result.Error)
	}

	return r.export(formatter.Tracklist{Title: path, Result: result}, format, cmd.String("output"))
}

// export writes tl to path, or to the runner output when path is empty.
func (r *Runner) export(tl formatter.Tracklist, format, path string) error {
	if path != "" {
		written, err := formatter.WriteExport(tl, format, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ %d songs written to %s\n", tl.Result.Count, written)
	}

	data, err := formatter.Export(tl, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) scrapeBatch(ctx context.Context, cmd *cli.Command, path string) error {
	urls, err := readURLList(path)
	if err != nil {
		return err
	}

	var recorder tasks.Recorder
	if cmd.Bool("record") {
		var h *history
		h, recorder = r.optionalRecorder()
		defer h.Close()
	}

	engine := r.newEngine(nil, recorder)
	progress := make(chan tasks.ProgressUpdate, 20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Phase == tasks.ScrapePages {
				r.logger.Info(update.Message, "step", update.Step, "total", update.Total)
			}
		}
	}()

	r.writePlainHeader("Batch Scrape")
	result, err := engine.BatchScrape(ctx, progress, r.newScraper(), urls, tasks.BatchOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	for _, page := range result.Pages {
		if page.Error != "" {
			r.writePlain("✗ %s\n  %s\n", page.URL, page.Error)
			continue
		}
		r.writePlain("✓ %s (%d songs, %s)\n", page.URL, page.Count, page.Strategy)
	}

	r.writePlainln("Scraped %d of %d pages", result.Succeeded, result.Total)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// readURLList reads one URL per line, skipping blank lines and # comments.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no URLs in %s", shared.ErrInvalidInput, path)
	}
	return urls, nil
}
