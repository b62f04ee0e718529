// package server serves the tracklist extractor over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, recovery, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the setlist service.
// Implementations handle specific endpoints (scrape, extract, OAuth callback).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler, extra ...Middleware)     // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Extractor runs the tracklist pipeline. Implemented by *scraper.Scraper.
type Extractor interface {
	Scrape(ctx context.Context, url string) (*models.Result, error)
	ExtractHTML(html string) (*models.Result, error)
}

// Recorder stores scrape history. Implemented by *repositories.HistoryRecorder.
type Recorder interface {
	RecordScrape(source, url string, result *models.Result) string
}

// Options wires a [Server] to its collaborators. Extractor is required.
type Options struct {
	Extractor Extractor
	Recorder  Recorder
	Logger    *log.Logger
	Registry  *prometheus.Registry        // defaults to a fresh registry
	Ready     func(context.Context) error // readiness probe, e.g. a database ping
}

// Server is the HTTP API in front of the extractor.
type Server struct {
	config    *shared.Config
	logger    *log.Logger
	extractor Extractor
	recorder  Recorder
	ready     func(context.Context) error
	metrics   *Metrics
	cache     *expirable.LRU[string, *models.Result]
	limiter   *IPLimiter
	router    *BasicRouter
	server    *http.Server
}

// NewServer creates a [Server] configured from the [server] and [scraper] sections of cfg.
func NewServer(cfg *shared.Config, opts Options) (*Server, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("%w: server needs an extractor", shared.ErrInvalidInput)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	metrics, err := NewMetrics(opts.Registry)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		logger:    shared.WithLogger(opts.Logger, "component", "server"),
		extractor: opts.Extractor,
		recorder:  opts.Recorder,
		ready:     opts.Ready,
		metrics:   metrics,
		limiter:   NewIPLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow.Duration, 0),
		router:    NewBasicRouter(),
	}
	if cfg.Server.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, *models.Result](cfg.Server.CacheSize, nil, cfg.Server.CacheTTL.Duration)
	}

	s.router.Use(Logging(s.logger), Recover(s.logger))
	s.router.Handler(&ScrapeHandler{server: s}, AllowMethods(http.MethodPost), s.rateLimit)
	s.router.Handler(&ExtractHandler{server: s}, AllowMethods(http.MethodPost), s.rateLimit)
	s.router.HandleFunc(http.MethodGet, "/healthz", s.healthz)
	s.router.HandleFunc(http.MethodGet, "/readyz", s.readyz)
	s.router.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for mounting under httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down HTTP server gracefully", "error", err)
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "setlist"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("not ready", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": "setlist"})
}

// record stores result in history and counts it, returning the history ID if any.
func (s *Server) record(source, url string, result *models.Result, started time.Time) string {
	s.metrics.Observe(source, result, time.Since(started))
	if s.recorder == nil {
		return ""
	}
	return s.recorder.RecordScrape(source, url, result)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// songsResponse is the body of every scrape and extract answer that reached the pipeline.
type songsResponse struct {
	Songs   []models.Song `json:"songs"`
	Count   int           `json:"count"`
	Tracks  []string      `json:"tracks,omitempty"`
	Success bool          `json:"success,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func resultResponse(res *models.Result, withTracks bool) songsResponse {
	if !res.OK() {
		return songsResponse{Songs: []models.Song{}, Count: 0, Error: res.Error}
	}
	body := songsResponse{Songs: res.Songs, Count: res.Count, Success: true}
	if withTracks {
		body.Tracks = res.Lines()
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
