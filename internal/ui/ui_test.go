package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

type stubScraper struct {
	result *models.Result
	err    error
}

func (s stubScraper) Scrape(ctx context.Context, url string) (*models.Result, error) {
	return s.result, s.err
}

type stubService struct {
	added []string
	title string
}

func (s *stubService) Name() string { return "stub" }

func (s *stubService) SearchTrack(ctx context.Context, query string) (*services.Track, error) {
	if strings.Contains(query, "Unknown") {
		return nil, shared.ErrTrackNotFound
	}
	return &services.Track{VideoID: "v-" + query}, nil
}

func (s *stubService) CreatePlaylist(ctx context.Context, title, description, privacy string) (*services.Playlist, error) {
	s.title = title
	return &services.Playlist{ID: "PL1", Title: title, Privacy: privacy}, nil
}

func (s *stubService) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	s.added = append(s.added, videoID)
	return nil
}

var chart = models.NewSuccess([]models.Song{
	models.NewSong("Karma Police", "Radiohead"),
	models.NewSong("Song 2", "Blur"),
	models.NewSong("Mystery", "Unknown"),
}, "table")

func keyPress(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func scraped(t *testing.T, m *Model) {
	t.Helper()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.scrape()())
}

func TestModel_ReviewAndBuild(t *testing.T) {
	svc := &stubService{}
	engine := tasks.NewPlaylistEngine(svc, tasks.EngineOpts{RequestsPerSecond: 1000})
	m := NewModel(context.Background(), Options{
		URL:     "https://charts.example/week",
		Scraper: stubScraper{result: chart},
		Engine:  engine,
		Name:    "Weekly",
	})

	scraped(t, m)
	if m.State() != SongListView {
		t.Fatalf("expected song list, got %d", m.State())
	}
	if !strings.Contains(m.View(), "3 of 3 songs selected") {
		t.Errorf("unexpected list view:\n%s", m.View())
	}

	// exclude the second song
	m.Update(keyPress("j"))
	m.Update(keyPress(" "))
	if got := len(includedSongs(m.songList.Items())); got != 2 {
		t.Fatalf("expected 2 included songs, got %d", got)
	}

	m.Update(keyPress("enter"))
	if m.State() != ConfirmView {
		t.Fatalf("expected confirm view, got %d", m.State())
	}
	if !strings.Contains(m.View(), "Songs: 2") {
		t.Errorf("unexpected confirm view:\n%s", m.View())
	}

	m.Update(keyPress("enter"))
	if m.State() != BuildView {
		t.Fatalf("expected build view, got %d", m.State())
	}

	for i := 0; m.State() == BuildView; i++ {
		if i > 50 {
			t.Fatal("build never completed")
		}
		m.Update(m.waitForProgress()())
	}

	if m.Err() != nil {
		t.Fatalf("unexpected error %v", m.Err())
	}
	res := m.Result()
	if res == nil || res.Added != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if svc.title != "Weekly" {
		t.Errorf("expected playlist named Weekly, got %q", svc.title)
	}
	if len(svc.added) != 1 || svc.added[0] != "v-Radiohead - Karma Police" {
		t.Errorf("unexpected inserted videos %v", svc.added)
	}

	view := m.View()
	for _, want := range []string{"Playlist ready", services.PlaylistURL("PL1"), "Unknown - Mystery (no match)"} {
		if !strings.Contains(view, want) {
			t.Errorf("result view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_AllExcluded(t *testing.T) {
	m := NewModel(context.Background(), Options{URL: "https://x.example", Scraper: stubScraper{result: chart}})
	scraped(t, m)

	for range 3 {
		m.Update(keyPress(" "))
		m.Update(keyPress("j"))
	}
	m.Update(keyPress("enter"))

	if m.State() != SongListView {
		t.Errorf("expected to stay on the list, got %d", m.State())
	}
	if !strings.Contains(m.View(), "Every song is excluded") {
		t.Errorf("expected notice:\n%s", m.View())
	}
}

func TestModel_ConfirmBack(t *testing.T) {
	m := NewModel(context.Background(), Options{URL: "https://x.example", Scraper: stubScraper{result: chart}})
	scraped(t, m)

	m.Update(keyPress("enter"))
	m.Update(keyPress("esc"))
	if m.State() != SongListView {
		t.Errorf("expected song list after esc, got %d", m.State())
	}
}

func TestModel_ScrapeFailures(t *testing.T) {
	tc := []struct {
		name    string
		scraper stubScraper
		want    string
	}{
		{"no songs", stubScraper{result: models.NewFailure(shared.ErrNoSongsFound, "No songs found on this page.")}, "No songs found"},
		{"fault", stubScraper{err: fmt.Errorf("%w: parse", shared.ErrUnexpected)}, "unexpected fault"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(context.Background(), Options{URL: "https://x.example", Scraper: tt.scraper})
			scraped(t, m)

			if m.State() != ResultView {
				t.Fatalf("expected result view, got %d", m.State())
			}
			if !strings.Contains(m.View(), tt.want) {
				t.Errorf("view missing %q:\n%s", tt.want, m.View())
			}
		})
	}
}

func TestModel_BuildError(t *testing.T) {
	engine := tasks.NewPlaylistEngine(nil, tasks.EngineOpts{})
	m := NewModel(context.Background(), Options{URL: "https://x.example", Scraper: stubScraper{result: chart}, Engine: engine})
	scraped(t, m)

	m.Update(keyPress("enter"))
	m.Update(keyPress("enter"))
	for i := 0; m.State() == BuildView && i < 10; i++ {
		m.Update(m.waitForProgress()())
	}

	if !errors.Is(m.Err(), shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", m.Err())
	}
}

func TestSongItem(t *testing.T) {
	item := songItem{song: models.NewSong("Imagine", ""), position: 3}
	if item.Title() != "✓  3. Imagine" || item.Description() != "unknown artist" {
		t.Errorf("unexpected item %q / %q", item.Title(), item.Description())
	}
	item.excluded = true
	if !strings.HasPrefix(item.Title(), "✗") {
		t.Errorf("excluded item should be marked, got %q", item.Title())
	}
}
