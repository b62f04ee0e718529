package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
)

// BatchOpts contains configuration for scraping several pages at once.
type BatchOpts struct {
	Format     string  // Export format: json, csv, markdown, text
	OutputDir  string  // Base output directory (default: setlist_batch_{epoch})
	NumWorkers int     // Concurrent fetches (default: 4, max: 10)
	RateLimit  float64 // Fetches started per second (default: 2)
}

// PageResult is the outcome of one page of a batch.
type PageResult struct {
	URL      string `json:"url"`
	Count    int    `json:"count"`
	Strategy string `json:"strategy,omitempty"`
	Error    string `json:"error,omitempty"`
	File     string `json:"file,omitempty"`
	ScrapeID string `json:"scrape_id,omitempty"`
}

// BatchResult summarises a batch and is written as its manifest.
type BatchResult struct {
	Total           int          `json:"total"`
	Succeeded       int          `json:"succeeded"`
	Failed          int          `json:"failed"`
	OutputDirectory string       `json:"output_directory"`
	ManifestPath    string       `json:"-"`
	Pages           []PageResult `json:"pages"`
}

// BatchScrape scrapes urls concurrently with rate limiting and writes one export per page plus a manifest.
//
// Pages keep the order of urls. A page that fails is reported in its [PageResult]; only setup errors, cancellation
// and a fault returned by the scraper abort the batch.
func (e *PlaylistEngine) BatchScrape(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	scraper Scraper,
	urls []string,
	opts BatchOpts,
) (*BatchResult, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs to scrape")
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("setlist_batch_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		Total:           len(urls),
		OutputDirectory: opts.OutputDir,
		Pages:           make([]PageResult, len(urls)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	var completed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumWorkers)

	var waitErr error
	for i, url := range urls {
		if err := limiter.Wait(gctx); err != nil {
			waitErr = err
			break
		}

		e.sendProgress(prog, scrapingPageUpdate(i+1, len(urls), url))

		g.Go(func() error {
			page, err := e.scrapePage(gctx, scraper, url, i, format, opts.OutputDir)
			if err != nil {
				return err
			}
			result.Pages[i] = page

			step := int(completed.Add(1))
			e.sendProgress(prog, scrapeCompletedUpdate(step, len(urls), page))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if waitErr != nil {
		return result, ctxErr(ctx, waitErr)
	}

	for _, page := range result.Pages {
		if page.Error == "" {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// scrapePage scrapes one URL and writes its export when songs were found.
func (e *PlaylistEngine) scrapePage(ctx context.Context, scraper Scraper, url string, index int, format, dir string) (PageResult, error) {
	page := PageResult{URL: url}

	res, err := scraper.Scrape(ctx, url)
	if err != nil {
		return page, fmt.Errorf("scrape %s: %w", url, err)
	}
	page.Count = res.Count
	page.Strategy = res.Strategy
	page.Error = res.Error

	if e.recorder != nil {
		page.ScrapeID = e.recorder.RecordScrape(models.SourceURL, url, res)
	}

	if !res.OK() {
		return page, nil
	}

	name := fmt.Sprintf("%02d-%s.%s", index+1, formatter.Slug(url), formatter.Extension(format))
	path, err := formatter.WriteExport(formatter.Tracklist{Title: url, Source: url, Result: res}, format, filepath.Join(dir, name))
	if err != nil {
		page.Error = err.Error()
		return page, nil
	}
	page.File = path
	return page, nil
}
