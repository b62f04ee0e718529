package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Outcome labels for [Metrics.ScrapesTotal].
const (
	OutcomeOK          = "ok"
	OutcomeInvalidURL  = "invalid_url"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeNoSongs     = "no_songs"
	OutcomeError       = "error"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	ScrapesTotal   *prometheus.CounterVec
	ScrapeDuration *prometheus.HistogramVec
	CacheHits      prometheus.Counter
	RateLimited    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ScrapesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "setlist_scrapes_total",
				Help: "Total number of extractions by source, outcome and winning strategy",
			},
			[]string{"source", "outcome", "strategy"},
		),
		ScrapeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "setlist_scrape_duration_seconds",
				Help:    "Time spent fetching and extracting a tracklist",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "setlist_cache_hits_total",
				Help: "Total number of scrapes answered from the result cache",
			},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "setlist_rate_limited_total",
				Help: "Total number of requests rejected by the per-client rate limit",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.ScrapesTotal, m.ScrapeDuration, m.CacheHits, m.RateLimited} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Observe counts one finished extraction.
func (m *Metrics) Observe(source string, result *models.Result, d time.Duration) {
	m.ScrapesTotal.WithLabelValues(source, ResultOutcome(result), result.Strategy).Inc()
	m.ScrapeDuration.WithLabelValues(source).Observe(d.Seconds())
}

// Fault counts an extraction that ended in an unexpected error.
func (m *Metrics) Fault(source string, d time.Duration) {
	m.ScrapesTotal.WithLabelValues(source, OutcomeError, "").Inc()
	m.ScrapeDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ResultOutcome maps a result to its metrics label.
func ResultOutcome(result *models.Result) string {
	if result.OK() {
		return OutcomeOK
	}
	switch reason := result.Reason(); {
	case errors.Is(reason, shared.ErrInvalidURL):
		return OutcomeInvalidURL
	case errors.Is(reason, shared.ErrFetchFailed):
		return OutcomeFetchFailed
	case errors.Is(reason, shared.ErrNoSongsFound):
		return OutcomeNoSongs
	default:
		return OutcomeError
	}
}
