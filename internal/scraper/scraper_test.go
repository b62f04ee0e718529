package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const chartPage = `<html><body><table>
<tr><td>1</td><td>1 – Radiohead</td><td>Karma Police</td><td>new</td></tr>
<tr><td>2</td><td>2 – Radiohead</td><td>Karma Police</td><td>-</td></tr>
<tr><td>3</td><td>3 – Blur</td><td>Song 2</td><td>up</td></tr>
</table></body></html>`

func serve(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// assertExclusive checks that a result carries songs or an error, never both or neither.
func assertExclusive(t *testing.T, r *models.Result) {
	t.Helper()
	hasSongs := len(r.Songs) > 0
	hasError := r.Error != ""
	if hasSongs == hasError {
		t.Errorf("songs (%d) and error (%q) must be exclusive", len(r.Songs), r.Error)
	}
	if r.Count != len(r.Songs) {
		t.Errorf("count = %d, songs = %d", r.Count, len(r.Songs))
	}
	if r.Songs == nil {
		t.Error("songs must never be nil")
	}
}

func TestScrapeChartTable(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, chartPage)
	s := New(Options{Client: srv.Client()})

	result, err := s.Scrape(context.Background(), srv.URL+"/charts")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	assertExclusive(t, result)

	want := []models.Song{
		{Artist: "Radiohead", Title: "Karma Police", Combined: "Radiohead - Karma Police"},
		{Artist: "Blur", Title: "Song 2", Combined: "Blur - Song 2"},
	}
	if len(result.Songs) != len(want) {
		t.Fatalf("got %d songs, want %d: %+v", len(result.Songs), len(want), result.Songs)
	}
	for i := range want {
		if result.Songs[i] != want[i] {
			t.Errorf("song %d = %+v, want %+v", i, result.Songs[i], want[i])
		}
	}
	if result.Strategy != StrategyTable {
		t.Errorf("strategy = %q, want %q", result.Strategy, StrategyTable)
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly one request, got %d", hits.Load())
	}
}

func TestScrapeInvalidURL(t *testing.T) {
	tc := []struct {
		name string
		url  string
		msg  string
	}{
		{name: "empty", url: "", msg: MsgMissingURL},
		{name: "whitespace", url: "   ", msg: MsgMissingURL},
		{name: "relative", url: "/charts", msg: MsgMalformedURL},
		{name: "unparseable", url: "http://exa mple.com", msg: MsgMalformedURL},
		{name: "ftp", url: "ftp://example.com/list", msg: MsgUnsupported},
		{name: "javascript", url: "javascript:alert(1)", msg: MsgUnsupported},
		{name: "missing host", url: "http:///path", msg: MsgMalformedURL},
	}

	var called atomic.Bool
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		called.Store(true)
		return nil, errors.New("no network in this test")
	})}
	s := New(Options{Client: client})

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Scrape(context.Background(), tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertExclusive(t, result)
			if result.Error != tt.msg {
				t.Errorf("error = %q, want %q", result.Error, tt.msg)
			}
			if !errors.Is(result.Reason(), shared.ErrInvalidURL) {
				t.Errorf("reason = %v, want ErrInvalidURL", result.Reason())
			}
		})
	}

	if called.Load() {
		t.Error("invalid URLs must not reach the network")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestScrapeFetchFailures(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		srv, _ := serve(t, http.StatusNotFound, "gone")
		s := New(Options{Client: srv.Client()})

		result, err := s.Scrape(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExclusive(t, result)
		if !strings.Contains(result.Error, "404") {
			t.Errorf("error %q should mention 404", result.Error)
		}
		if !strings.HasPrefix(result.Error, MsgFetchFailed) {
			t.Errorf("error %q should start with %q", result.Error, MsgFetchFailed)
		}
		if !errors.Is(result.Reason(), shared.ErrFetchFailed) {
			t.Errorf("reason = %v, want ErrFetchFailed", result.Reason())
		}
	})

	t.Run("no retry on server error", func(t *testing.T) {
		srv, hits := serve(t, http.StatusServiceUnavailable, "")
		s := New(Options{Client: srv.Client()})

		result, _ := s.Scrape(context.Background(), srv.URL)
		if !strings.Contains(result.Error, "503") {
			t.Errorf("error %q should mention 503", result.Error)
		}
		if hits.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", hits.Load())
		}
	})

	t.Run("transport error", func(t *testing.T) {
		client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})}
		s := New(Options{Client: client})

		result, err := s.Scrape(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExclusive(t, result)
		if !strings.Contains(result.Error, "connection refused") {
			t.Errorf("unexpected error message %q", result.Error)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		s := New(Options{Client: srv.Client(), Timeout: 50 * time.Millisecond})
		result, err := s.Scrape(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExclusive(t, result)
		if !strings.Contains(result.Error, "timed out") {
			t.Errorf("error %q should report a timeout", result.Error)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		srv, _ := serve(t, http.StatusOK, chartPage)
		s := New(Options{Client: srv.Client()})

		result, err := s.Scrape(ctx, srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExclusive(t, result)
		if !errors.Is(result.Reason(), shared.ErrFetchFailed) {
			t.Errorf("reason = %v, want ErrFetchFailed", result.Reason())
		}
		if !strings.Contains(result.Error, "cancelled") {
			t.Errorf("error %q should report cancellation", result.Error)
		}
	})
}

func TestScrapeNoSongs(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `<html><body><nav><ul><li>Home</li><li>Login</li></ul></nav></body></html>`)
	s := New(Options{Client: srv.Client()})

	result, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExclusive(t, result)
	if result.Error != MsgNoSongsFound {
		t.Errorf("error = %q, want %q", result.Error, MsgNoSongsFound)
	}
	if !errors.Is(result.Reason(), shared.ErrNoSongsFound) {
		t.Errorf("reason = %v, want ErrNoSongsFound", result.Reason())
	}
}

func TestExtractTruncates(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("<ul>")
	for i := 1; i <= 37; i++ {
		fmt.Fprintf(&b, "<li>Band %d - Long Song Title %d</li>", i, i)
	}
	b.WriteString("</ul>")

	s := New(Options{})
	result, err := s.ExtractHTML(b.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertExclusive(t, result)

	if result.Count != 20 || len(result.Songs) != 20 {
		t.Fatalf("count = %d, len = %d, want 20", result.Count, len(result.Songs))
	}
	for i, song := range result.Songs {
		if want := fmt.Sprintf("Band %d - Long Song Title %d", i+1, i+1); song.Combined != want {
			t.Errorf("song %d = %q, want %q", i, song.Combined, want)
		}
	}
}

func TestExtractCustomLimit(t *testing.T) {
	s := New(Options{MaxSongs: 1})
	result, err := s.ExtractHTML(chartPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 || result.Songs[0].Combined != "Radiohead - Karma Police" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestScrapeDecodesCharset(t *testing.T) {
	// "Sigur Rós" encoded as ISO-8859-1.
	body := []byte("<ul><li>Sigur R\xf3s - Hopp\xedpolla</li></ul>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	s := New(Options{Client: srv.Client()})
	result, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK() || result.Songs[0].Combined != "Sigur Rós - Hoppípolla" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestScrapeSendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, chartPage)
	}))
	t.Cleanup(srv.Close)

	s := New(Options{Client: srv.Client(), UserAgent: "setlist-test/1.0"})
	if _, err := s.Scrape(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"User-Agent":      "setlist-test/1.0",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	for name, value := range want {
		if got.Get(name) != value {
			t.Errorf("%s = %q, want %q", name, got.Get(name), value)
		}
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Scraper.MaxSongs = 2
	cfg.Filter.MinLength = 50

	s := NewFromConfig(cfg, nil, nil)
	if s.maxSongs != 2 {
		t.Errorf("maxSongs = %d, want 2", s.maxSongs)
	}
	if s.filter.MinLength != 50 {
		t.Errorf("filter min length = %d, want 50", s.filter.MinLength)
	}

	result, err := s.ExtractHTML(chartPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK() {
		t.Errorf("expected the long minimum length to reject every row, got %+v", result.Songs)
	}
}

func TestScrapeConcurrent(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, chartPage)
	s := New(Options{Client: srv.Client()})

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			result, err := s.Scrape(context.Background(), srv.URL)
			if err == nil && result.Count != 2 {
				err = fmt.Errorf("count = %d", result.Count)
			}
			errs <- err
		}()
	}
	for range 8 {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
