package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/scraper"
	"github.com/desertthunder/setlist/internal/shared"
	tu "github.com/desertthunder/setlist/internal/testing"
)

type mockScraper struct {
	results map[string]*models.Result
	err     error
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (*models.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if res, ok := m.results[url]; ok {
		return res, nil
	}
	return models.NewFailure(shared.ErrFetchFailed, "Failed to fetch URL: 404 Not Found"), nil
}

func TestBatchScrape(t *testing.T) {
	good := models.NewSuccess([]models.Song{
		models.NewSong("Bohemian Rhapsody", "Queen"),
		models.NewSong("Imagine", "John Lennon"),
	}, scraper.StrategyTable)

	urls := []string{
		"https://charts.example/week-1",
		"https://charts.example/missing",
		"https://charts.example/week-2",
	}

	t.Run("writes exports and manifest in input order", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "batch")
		scr := &mockScraper{results: map[string]*models.Result{urls[0]: good, urls[2]: good}}
		rec := &mockRecorder{}
		engine := NewPlaylistEngine(nil, EngineOpts{Recorder: rec})

		progress := make(chan ProgressUpdate, 20)
		result, err := engine.BatchScrape(context.Background(), progress, scr, urls, BatchOpts{
			Format:     "csv",
			OutputDir:  dir,
			NumWorkers: 2,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("BatchScrape() error = %v", err)
		}

		if result.Total != 3 || result.Succeeded != 2 || result.Failed != 1 {
			t.Errorf("unexpected totals %+v", result)
		}
		for i, page := range result.Pages {
			if page.URL != urls[i] {
				t.Errorf("page %d: got %s, want %s", i, page.URL, urls[i])
			}
		}

		first := result.Pages[0]
		if first.Count != 2 || first.Strategy != scraper.StrategyTable {
			t.Errorf("unexpected first page %+v", first)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "01-charts-example-week-1.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "03-charts-example-week-2.csv"))

		missing := result.Pages[1]
		if missing.File != "" || !strings.Contains(missing.Error, "404") {
			t.Errorf("unexpected failed page %+v", missing)
		}

		if len(rec.scrapes) != 3 {
			t.Errorf("expected every page recorded, got %d", len(rec.scrapes))
		}

		var manifest BatchResult
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
			t.Fatalf("manifest is not JSON: %v", err)
		}
		if manifest.Succeeded != 2 || len(manifest.Pages) != 3 || manifest.Pages[1].URL != urls[1] {
			t.Errorf("unexpected manifest %+v", manifest)
		}

		close(progress)
		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("against a live page", func(t *testing.T) {
		server := tu.NewPageServer(t, 200, tu.ChartPage)
		dir := t.TempDir()

		engine := NewPlaylistEngine(nil, EngineOpts{})
		result, err := engine.BatchScrape(context.Background(), nil, scraper.New(scraper.Options{}), []string{server.URL}, BatchOpts{
			Format:    "md",
			OutputDir: dir,
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("BatchScrape() error = %v", err)
		}
		if result.Succeeded != 1 || !strings.HasSuffix(result.Pages[0].File, ".md") {
			t.Errorf("unexpected result %+v", result.Pages[0])
		}
		if server.Hits() != 1 {
			t.Errorf("expected one fetch, got %d", server.Hits())
		}
	})

	t.Run("scraper fault aborts", func(t *testing.T) {
		scr := &mockScraper{err: fmt.Errorf("%w: parse", shared.ErrUnexpected)}
		engine := NewPlaylistEngine(nil, EngineOpts{})
		_, err := engine.BatchScrape(context.Background(), nil, scr, urls[:1], BatchOpts{OutputDir: t.TempDir(), RateLimit: 1000})
		if !errors.Is(err, shared.ErrUnexpected) {
			t.Errorf("expected ErrUnexpected, got %v", err)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		engine := NewPlaylistEngine(nil, EngineOpts{})
		if _, err := engine.BatchScrape(context.Background(), nil, &mockScraper{}, nil, BatchOpts{}); err == nil {
			t.Error("expected error for no URLs")
		}

		_, err := engine.BatchScrape(context.Background(), nil, &mockScraper{}, urls, BatchOpts{Format: "xml", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		engine := NewPlaylistEngine(nil, EngineOpts{})
		_, err := engine.BatchScrape(ctx, nil, &mockScraper{}, urls, BatchOpts{OutputDir: dir})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err == nil {
			t.Error("manifest should not be written for a cancelled batch")
		}
	})
}
