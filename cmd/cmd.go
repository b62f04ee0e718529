// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/services"
)

var formatUsage = "Export format (" + strings.Join(formatter.Formats, ", ") + ")"

// scrapeCommand extracts a tracklist from one page or a batch of pages
func scrapeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "scrape",
		Usage:     "Extract the tracklist from a web page",
		ArgsUsage: "[url]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   formatUsage,
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "batch",
				Usage: "File with one URL per line to scrape concurrently",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for batch exports (default: setlist_batch_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent fetches for --batch (max 10)",
				Value: 4,
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Save the scrape to history when the database exists",
				Value: true,
			},
		},
		Action: r.Scrape,
	}
}

// extractCommand runs the extraction pipeline over a saved HTML file
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract the tracklist from a saved HTML file",
		ArgsUsage: "<file>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   formatUsage,
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
		},
		Action: r.Extract,
	}
}

// playlistCommand handles YouTube playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "YouTube playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Scrape a page (or load a saved scrape) and build a YouTube playlist from its songs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Page to scrape",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "History record (id or sequence number) to build from",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Playlist title (default: derived from the source)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.StringFlag{
						Name:  "privacy",
						Usage: "Playlist privacy (" + strings.Join([]string{services.PrivacyPrivate, services.PrivacyUnlisted, services.PrivacyPublic}, ", ") + ")",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistBuild,
			},
		},
	}
}

// historyCommand handles saved scrapes and builds
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse saved scrapes and playlist builds",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent scrapes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of scrapes to return",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only scrapes from this source (url, upload)",
					},
					&cli.BoolFlag{
						Name:  "failed",
						Usage: "Only scrapes that found no songs",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show a scrape with its songs and builds",
				ArgsUsage: "<id|sequence>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a scrape from history",
				ArgsUsage: "<id|sequence>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// serveCommand runs the HTTP scrape API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP scrape API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to bind (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:    "youtube",
				Aliases: []string{"yt", "login"},
				Usage:   "Authorize access to your YouTube account using OAuth2",
				Action:  r.AuthYouTube,
			},
			{
				Name:   "status",
				Usage:  "Check whether a YouTube token is saved and valid",
				Action: r.AuthStatus,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for reviewing a tracklist and building a playlist.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Review a page's tracklist interactively and build a playlist",
		ArgsUsage: "<url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Initial playlist title",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/setlist-tui.log",
			},
		},
		Action: r.TUI,
	}
}
