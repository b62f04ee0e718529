package services

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/setlist/internal/shared"
)

func TestOAuthConfig(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		_, err := OAuthConfig(shared.YouTubeConfig{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("builds google config", func(t *testing.T) {
		cfg, err := OAuthConfig(shared.YouTubeConfig{ClientID: "id", ClientSecret: "secret"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.RedirectURL != "http://localhost:3000/callback" {
			t.Errorf("unexpected default redirect %s", cfg.RedirectURL)
		}
		if len(cfg.Scopes) != 1 || cfg.Scopes[0] != YouTubeScope {
			t.Errorf("unexpected scopes %v", cfg.Scopes)
		}

		u, err := url.Parse(AuthURL(cfg, "state-123"))
		if err != nil {
			t.Fatalf("failed to parse auth URL: %v", err)
		}
		q := u.Query()
		if q.Get("state") != "state-123" || q.Get("access_type") != "offline" || q.Get("client_id") != "id" {
			t.Errorf("unexpected auth URL query %v", q)
		}
	})
}

func TestTokenFile(t *testing.T) {
	t.Run("save then load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "token.json")
		tok := &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		if err := SaveToken(path, tok); err != nil {
			t.Fatalf("SaveToken() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("token file missing: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected mode 0600, got %o", perm)
		}

		loaded, err := LoadToken(path)
		if err != nil {
			t.Fatalf("LoadToken() error = %v", err)
		}
		if loaded.RefreshToken != "refresh" || !loaded.Expiry.Equal(tok.Expiry) {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadToken(path)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadToken(path); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
