// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/setlist/internal/shared"
)

// ChartPage is a chart-site snapshot with a duplicate row; it extracts to two songs.
const ChartPage = `<!DOCTYPE html>
<html><head><title>Weekly Chart</title></head>
<body>
<nav><ul><li>Home</li><li>Login</li></ul></nav>
<table class="chart">
  <tr><th>#</th><th>Artist</th><th>Title</th><th>Last week</th></tr>
  <tr><td>1</td><td>1 – Radiohead</td><td>Karma Police</td><td>2</td></tr>
  <tr><td>2</td><td>2 – Radiohead</td><td>Karma Police</td><td>1</td></tr>
  <tr><td>3</td><td>3 – Blur</td><td>Song 2</td><td>new</td></tr>
</table>
</body></html>`

// EmptyPage has navigation chrome only.
const EmptyPage = `<html><body><nav><ul><li>Home</li><li>Menu</li></ul></nav><p>Copyright 2024</p></body></html>`

// PageServer serves a fixed HTML body and counts requests.
type PageServer struct {
	*httptest.Server
	hits atomic.Int32
}

// Hits returns the number of requests served.
func (p *PageServer) Hits() int {
	return int(p.hits.Load())
}

// NewPageServer starts an [httptest.Server] answering every request with status and body. It is closed with the test.
func NewPageServer(t *testing.T, status int, body string) *PageServer {
	t.Helper()
	ps := &PageServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// MustOpenDB opens a migrated in-memory sqlite database that is closed with the test.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
