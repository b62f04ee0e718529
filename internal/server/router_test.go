package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/shared"
)

type echoHandler struct{ routes []string }

func (h *echoHandler) Routes() []string { return h.routes }

func (h *echoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("echo " + r.URL.Path))
}

func tag(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		r := NewBasicRouter()
		r.Use(tag("outer", &order), tag("inner", &order))
		r.Handler(&echoHandler{routes: []string{"/a", "/b"}}, tag("route", &order))

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "echo "+path {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		}

		if strings.Join(order, ",") != "outer,inner,route,outer,inner,route" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})

	t.Run("method filter", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc(http.MethodGet, "/only-get", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/only-get", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/only-get", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("unexpected Allow header %q", rec.Header().Get("Allow"))
		}
		if !strings.Contains(rec.Body.String(), "Method not allowed. Use GET.") {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})
}

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	h := Recover(shared.NewLogger(&logs))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape-playlist", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), MsgInternalError) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Errorf("expected panic to be logged, got %q", logs.String())
	}
}

func TestLogging(t *testing.T) {
	var logs bytes.Buffer
	h := Logging(shared.NewLogger(&logs))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	out := logs.String()
	for _, want := range []string{"request", "/healthz", "418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %q", want, out)
		}
	}
}

func TestClientIP(t *testing.T) {
	tc := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"forwarded beats real ip", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.2"}, "", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.2:5000", "198.51.100.2"},
		{"blank forwarded", map[string]string{"X-Forwarded-For": " , 10.0.0.1"}, "10.0.0.2:5000", "10.0.0.2"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
		{"nothing", nil, "", "unknown"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPLimiter(t *testing.T) {
	t.Run("limits per client", func(t *testing.T) {
		l := NewIPLimiter(10, time.Minute, 0)
		for i := range 10 {
			if !l.Allow("a") {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		if l.Allow("a") {
			t.Error("11th request within the window should be refused")
		}
		if !l.Allow("b") {
			t.Error("another client should have its own budget")
		}
	})

	t.Run("sliding window", func(t *testing.T) {
		start := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
		now := start
		l := NewIPLimiter(10, time.Minute, 0)
		l.now = func() time.Time { return now }

		for i := range 10 {
			now = start.Add(time.Duration(i) * time.Second)
			if !l.Allow("a") {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		for _, at := range []time.Duration{30 * time.Second, 59 * time.Second, 60 * time.Second} {
			now = start.Add(at)
			if l.Allow("a") {
				t.Errorf("request at %v should be refused while 10 remain in the window", at)
			}
		}

		now = start.Add(60*time.Second + time.Millisecond)
		if !l.Allow("a") {
			t.Error("the first request should have left the window")
		}
		if l.Allow("a") {
			t.Error("only one slot should have freed up")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		l := NewIPLimiter(0, time.Minute, 0)
		for range 100 {
			if !l.Allow("a") {
				t.Fatal("a zero limit should never refuse")
			}
		}
	})

	t.Run("bounded table", func(t *testing.T) {
		l := NewIPLimiter(1, time.Minute, 2)
		l.Allow("a")
		l.Allow("b")
		l.Allow("c")
		if l.clients.Len() != 2 {
			t.Errorf("expected 2 remembered clients, got %d", l.clients.Len())
		}
	})
}
