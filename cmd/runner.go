package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/scraper"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	configSet  bool // config was injected and must not be reloaded from --config
	youtube    services.Service
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config starts as the defaults and is replaced from the --config file before a command runs. A nil YouTube
// service is built from the saved OAuth token when a command needs one.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	YouTube    services.Service
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	configSet := opts.Config != nil
	if !configSet {
		opts.Config = shared.DefaultConfig()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		configSet:  configSet,
		youtube:    opts.YouTube,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		scrapeCommand, extractCommand, playlistCommand, historyCommand, serveCommand, setupCommand, authCommand,
		tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags: log level and configuration.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" && (r.configPath == "" || cmd.IsSet("config")) {
		r.configPath = path
	}

	if r.configSet {
		return ctx, nil
	}

	r.config = r.loadConfig()
	r.configSet = true
	return ctx, nil
}

// loadConfig reads the config file, falling back to the embedded defaults when it is missing or unreadable.
func (r *Runner) loadConfig() *shared.Config {
	if r.configPath == "" {
		return shared.DefaultConfig()
	}
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return shared.DefaultConfig()
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", r.configPath, "error", err)
		return shared.DefaultConfig()
	}
	return config
}

func (r *Runner) newScraper() *scraper.Scraper {
	return scraper.NewFromConfig(r.config, r.httpClient, r.logger)
}

func (r *Runner) newEngine(youtube services.Service, recorder tasks.Recorder) *tasks.PlaylistEngine {
	cfg := r.config.Playlist
	return tasks.NewPlaylistEngine(youtube, tasks.EngineOpts{
		MaxSongs:          cfg.MaxSongs,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Privacy:           cfg.Privacy,
		Recorder:          recorder,
		Logger:            r.logger,
	})
}

// youtubeService returns the injected service or one authorized with the saved OAuth token.
func (r *Runner) youtubeService(ctx context.Context) (services.Service, error) {
	if r.youtube != nil {
		return r.youtube, nil
	}

	creds := r.config.Credentials.YouTube
	oauthConfig, err := services.OAuthConfig(creds)
	if err != nil {
		return nil, err
	}

	token, err := services.LoadToken(creds.TokenPath)
	if err != nil {
		return nil, err
	}

	client := services.NewYouTubeClient(ctx, oauthConfig, token)
	r.youtube = services.NewYouTubeService(creds.BaseURL, client)
	return r.youtube, nil
}

// history holds an open database and its repositories.
type history struct {
	db       *sql.DB
	scrapes  *repositories.ScrapeRepository
	builds   *repositories.BuildRepository
	recorder *repositories.HistoryRecorder
}

func (h *history) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}

// openHistory opens and migrates the configured database.
//
// With required unset, a database file that does not exist yet yields (nil, nil): history is only kept once
// 'setlist setup database' has created it.
func (r *Runner) openHistory(required bool) (*history, error) {
	cfg := r.config.Database
	if cfg.Path == "" {
		if required {
			return nil, fmt.Errorf("%w: database.path is not set", shared.ErrMissingConfig)
		}
		return nil, nil
	}

	if cfg.Path != ":memory:" {
		if _, err := os.Stat(cfg.Path); errors.Is(err, os.ErrNotExist) {
			if required {
				return nil, fmt.Errorf("%w: no database at %s (run 'setlist setup database' first)", shared.ErrMissingConfig, cfg.Path)
			}
			return nil, nil
		}
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Path != ":memory:" {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	h := &history{
		db:      db,
		scrapes: repositories.NewScrapeRepository(db),
		builds:  repositories.NewBuildRepository(db),
	}
	h.recorder = repositories.NewHistoryRecorder(h.scrapes, h.builds, r.logger)
	return h, nil
}

// optionalRecorder opens history for recording, logging instead of failing when it is unavailable.
func (r *Runner) optionalRecorder() (*history, tasks.Recorder) {
	h, err := r.openHistory(false)
	if err != nil {
		r.logger.Warn("history unavailable", "error", err)
		return nil, nil
	}
	if h == nil {
		return nil, nil
	}
	return h, h.recorder
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
