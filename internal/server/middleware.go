package server

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// MsgTooManyRequests is the 429 body for a client over its limit.
const MsgTooManyRequests = "Too many requests. Please wait a minute before trying again."

// defaultLimiterEntries bounds how many clients the limiter remembers.
const defaultLimiterEntries = 4096

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs method, path, status and duration of every request.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Recover turns a panic in a handler into a JSON 500.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic in handler", "path", r.URL.Path, "panic", v, "stack", string(debug.Stack()))
					writeJSON(w, http.StatusInternalServerError, errorResponse{Error: MsgInternalError})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP identifies the caller: the first X-Forwarded-For entry, then X-Real-IP, then the connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// IPLimiter allows each client at most limit requests in any sliding window.
//
// Clients are kept in an LRU table so the limiter's memory stays bounded. A limit of zero disables limiting.
type IPLimiter struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	clients *lru.Cache[string, []time.Time]
}

// NewIPLimiter creates an [IPLimiter] remembering up to entries clients (4096 when entries is zero).
func NewIPLimiter(limit int, window time.Duration, entries int) *IPLimiter {
	if entries <= 0 {
		entries = defaultLimiterEntries
	}
	if window <= 0 {
		window = time.Minute
	}
	clients, _ := lru.New[string, []time.Time](entries)
	return &IPLimiter{limit: limit, window: window, now: time.Now, clients: clients}
}

// Allow reports whether ip may make another request now, counting it if so.
func (l *IPLimiter) Allow(ip string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Add(-l.window)

	seen, _ := l.clients.Get(ip)
	recent := seen[:0]
	for _, ts := range seen {
		if ts.After(start) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.limit {
		l.clients.Add(ip, recent)
		return false
	}
	l.clients.Add(ip, append(recent, now))
	return true
}

// rateLimit rejects clients over the per-IP limit with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !s.limiter.Allow(ip) {
			s.metrics.RateLimited.Inc()
			s.logger.Warn("rate limited", "ip", ip, "path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: MsgTooManyRequests})
			return
		}
		next.ServeHTTP(w, r)
	})
}
