package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html/charset"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxSongs     = 20
	DefaultMaxBodyBytes = 5 << 20
	DefaultUserAgent    = "Mozilla/5.0 (compatible; setlist/1.0; +https://github.com/desertthunder/setlist)"
)

// Messages returned in [models.Result.Error].
const (
	MsgMissingURL   = "Invalid URL provided"
	MsgMalformedURL = "Invalid URL format"
	MsgUnsupported  = "Only HTTP/HTTPS URLs are supported"
	MsgFetchFailed  = "Failed to fetch URL"
	MsgNoSongsFound = "No songs found on this page. Please check the URL or try a different page."
)

// Request headers sent with every fetch alongside the user agent.
const (
	acceptHeader     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLangHeader = "en-US,en;q=0.9"
)

// Options configures a [Scraper]. Zero values take the package defaults.
type Options struct {
	Client       *http.Client
	Timeout      time.Duration
	UserAgent    string
	MaxSongs     int
	MaxBodyBytes int64
	Filter       *Filter
	Strategies   []Strategy
	Logger       *log.Logger
}

// Scraper fetches pages and extracts their tracklists.
//
// A Scraper holds no per-call state and is safe for concurrent use.
type Scraper struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxSongs     int
	maxBodyBytes int64
	filter       *Filter
	strategies   []Strategy
	logger       *log.Logger
}

// New creates a [Scraper] from opts.
func New(opts Options) *Scraper {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxSongs <= 0 {
		opts.MaxSongs = DefaultMaxSongs
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Filter == nil {
		opts.Filter = DefaultFilter()
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Scraper{
		client:       opts.Client,
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		maxSongs:     opts.MaxSongs,
		maxBodyBytes: opts.MaxBodyBytes,
		filter:       opts.Filter,
		strategies:   opts.Strategies,
		logger:       shared.WithLogger(opts.Logger, "component", "scraper"),
	}
}

// NewFromConfig creates a [Scraper] from the [scraper] and [filter] config sections.
func NewFromConfig(cfg *shared.Config, client *http.Client, logger *log.Logger) *Scraper {
	return New(Options{
		Client:       client,
		Timeout:      cfg.Scraper.Timeout.Duration,
		UserAgent:    cfg.Scraper.UserAgent,
		MaxSongs:     cfg.Scraper.MaxSongs,
		MaxBodyBytes: cfg.Scraper.MaxBodyBytes,
		Filter:       NewFilter(cfg.Filter),
		Logger:       logger,
	})
}

// Scrape fetches rawURL and extracts its tracklist.
//
// A bad URL, a failed fetch and an empty extraction are reported in the returned [models.Result];
// the error is non-nil only for faults wrapping [shared.ErrUnexpected].
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*models.Result, error) {
	target, failure := validateURL(rawURL)
	if failure != nil {
		s.logger.Debug("rejected url", "url", rawURL, "error", failure.Error)
		return failure, nil
	}

	body, failure := s.fetch(ctx, target)
	if failure != nil {
		s.logger.Warn("fetch failed", "url", rawURL, "error", failure.Error)
		return failure, nil
	}

	return s.Extract(body)
}

func validateURL(rawURL string) (*url.URL, *models.Result) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, models.NewFailure(shared.ErrInvalidURL, MsgMissingURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return nil, models.NewFailure(shared.ErrInvalidURL, MsgMalformedURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, models.NewFailure(shared.ErrInvalidURL, MsgUnsupported)
	}
	if u.Host == "" {
		return nil, models.NewFailure(shared.ErrInvalidURL, MsgMalformedURL)
	}
	return u, nil
}

// fetch performs the single GET for target, bounded by the scraper timeout.
func (s *Scraper) fetch(ctx context.Context, target *url.URL) (io.Reader, *models.Result) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fetchFailure(err.Error())
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLangHeader)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fetchFailure(describeFetchError(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := resp.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, fetchFailure(status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes))
	if err != nil {
		return nil, fetchFailure(describeFetchError(ctx, err))
	}

	reader, err := charset.NewReader(bytes.NewReader(data), resp.Header.Get("Content-Type"))
	if err != nil {
		return bytes.NewReader(data), nil
	}
	return reader, nil
}

func fetchFailure(reason string) *models.Result {
	return models.NewFailure(shared.ErrFetchFailed, fmt.Sprintf("%s: %s", MsgFetchFailed, reason))
}

func describeFetchError(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(ctx.Err(), context.Canceled):
		return "request cancelled"
	default:
		return err.Error()
	}
}

// ExtractHTML runs the extraction pipeline over an HTML document already in hand, such as an uploaded snapshot.
func (s *Scraper) ExtractHTML(html string) (*models.Result, error) {
	return s.Extract(strings.NewReader(html))
}

// Extract parses r and runs the strategy cascade, deduplication and truncation.
func (s *Scraper) Extract(r io.Reader) (*models.Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", shared.ErrUnexpected, err)
	}

	candidates, strategy := Cascade(doc, s.strategies, s.filter)
	songs := Dedupe(candidates)
	if len(songs) == 0 {
		s.logger.Debug("no strategy matched")
		return models.NewFailure(shared.ErrNoSongsFound, MsgNoSongsFound), nil
	}

	s.logger.Debug("strategy matched", "strategy", strategy, "candidates", len(candidates), "unique", len(songs))

	if len(songs) > s.maxSongs {
		songs = songs[:s.maxSongs]
	}
	return models.NewSuccess(songs, strategy), nil
}
