package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./setlist.db" {
			t.Errorf("expected database path ./setlist.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Scraper.Timeout.Duration != 10*time.Second {
			t.Errorf("expected scraper timeout 10s, got %v", config.Scraper.Timeout)
		}

		if config.Scraper.MaxSongs != 20 {
			t.Errorf("expected max songs 20, got %d", config.Scraper.MaxSongs)
		}

		if config.Scraper.MaxURLLength != 2000 {
			t.Errorf("expected max url length 2000, got %d", config.Scraper.MaxURLLength)
		}

		if len(config.Filter.NavigationKeywords) != 10 {
			t.Errorf("expected 10 navigation keywords, got %d", len(config.Filter.NavigationKeywords))
		}

		if config.Server.RateWindow.Duration != time.Minute {
			t.Errorf("expected rate window 1m, got %v", config.Server.RateWindow)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[scraper]
timeout = "5s"
max_songs = 10

[server]
host = "0.0.0.0"
port = 8080

[credentials.youtube]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Scraper.Timeout.Duration != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", config.Scraper.Timeout)
		}

		if config.Scraper.MaxSongs != 10 {
			t.Errorf("expected max songs 10, got %d", config.Scraper.MaxSongs)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.YouTube.ClientID != "test_client_id" {
			t.Errorf("expected youtube client_id test_client_id, got %s", config.Credentials.YouTube.ClientID)
		}

		if config.Database.Path != "./setlist.db" {
			t.Errorf("keys missing from the file should keep defaults, got database path %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig Bad Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[scraper]\ntimeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for unparsable duration")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
