package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ScrapeView ViewState = iota
	SongListView
	ConfirmView
	BuildView
	ResultView
)

// Options wires the TUI to the scraper and playlist engine.
type Options struct {
	URL      string
	Scraper  tasks.Scraper
	Engine   *tasks.PlaylistEngine
	Recorder tasks.Recorder // optional
	Name     string         // suggested playlist name
	Privacy  string
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     Options
	view     ViewState
	width    int
	height   int
	spinner  spinner.Model
	songList list.Model
	name     textinput.Model
	scraped  *models.Result
	scrapeID string
	notice   string
	progress tasks.ProgressUpdate
	updates  chan tasks.ProgressUpdate
	done     chan buildData
	result   *tasks.BuildResult
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	name := textinput.New()
	name.Placeholder = "Playlist name"
	name.CharLimit = 150
	name.SetValue(opts.Name)

	if opts.Privacy == "" {
		opts.Privacy = services.PrivacyPrivate
	}

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		opts:    opts,
		view:    ScrapeView,
		spinner: sp,
		name:    name,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the finished build, if any.
func (m *Model) Result() *tasks.BuildResult { return m.result }

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Init starts the scrape.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scrape())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.scraped != nil {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != ScrapeView && m.view != BuildView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ScrapeView, BuildView:
			if key.Matches(msg, m.keys.quit) {
				m.cancel()
				return m, tea.Quit
			}
			return m, nil
		case SongListView:
			return m.handleSongListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == SongListView {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgScraped:
		data := msg.data.(scrapedData)
		switch {
		case data.err != nil:
			m.err = data.err
			m.view = ResultView
			return m, nil
		case !data.result.OK():
			m.err = errors.New(data.result.Error)
			m.view = ResultView
			return m, nil
		}

		m.scraped = data.result
		m.scrapeID = data.scrapeID
		m.songList = list.New(songItems(data.result.Songs), songDelegate(), 0, 0)
		m.songList.Title = fmt.Sprintf("%d songs (%s)", data.result.Count, data.result.Strategy)
		m.songList.SetSize(m.width-4, m.height-8)
		m.view = SongListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgBuildComplete:
		data := msg.data.(buildData)
		m.result = data.result
		m.err = data.err
		m.updates = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		item, ok := m.songList.SelectedItem().(songItem)
		if !ok {
			return m, nil
		}
		item.excluded = !item.excluded
		m.notice = ""
		return m, m.songList.SetItem(m.songList.GlobalIndex(), item)
	case key.Matches(msg, m.keys.enter):
		if len(includedSongs(m.songList.Items())) == 0 {
			m.notice = "Every song is excluded. Include at least one with space."
			return m, nil
		}
		m.notice = ""
		m.view = ConfirmView
		return m, m.name.Focus()
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc":
		m.name.Blur()
		m.view = SongListView
		return m, nil
	case "enter":
		m.name.Blur()
		m.view = BuildView
		return m, tea.Batch(m.spinner.Tick, m.startBuild())
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ScrapeView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.scrape())
	}
	return m, nil
}

func (m *Model) scrape() tea.Cmd {
	return func() tea.Msg {
		res, err := m.opts.Scraper.Scrape(m.ctx, m.opts.URL)
		if err != nil {
			return scrapedMsg(nil, "", err)
		}

		var id string
		if m.opts.Recorder != nil {
			id = m.opts.Recorder.RecordScrape(models.SourceURL, m.opts.URL, res)
		}
		return scrapedMsg(res, id, nil)
	}
}

func (m *Model) startBuild() tea.Cmd {
	m.updates = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan buildData, 1)

	req := tasks.BuildRequest{
		Name:        strings.TrimSpace(m.name.Value()),
		Description: "Built by setlist from " + m.opts.URL,
		Privacy:     m.opts.Privacy,
		Songs:       includedSongs(m.songList.Items()),
		ScrapeID:    m.scrapeID,
	}
	updates, done := m.updates, m.done

	go func() {
		result, err := m.opts.Engine.Build(m.ctx, updates, req)
		close(updates)
		done <- buildData{result, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		if updates == nil {
			return buildCompleteMsg(nil, errors.New("no build in progress"))
		}

		update, ok := <-updates
		if !ok {
			res := <-done
			return buildCompleteMsg(res.result, res.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ScrapeView:
		return m.renderScrape()
	case SongListView:
		return m.renderSongList()
	case ConfirmView:
		return m.renderConfirm()
	case BuildView:
		return m.renderBuild()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderScrape() string {
	return fmt.Sprintf("%s Scraping %s...\n\n%s", m.spinner.View(), m.opts.URL, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderSongList() string {
	included := len(includedSongs(m.songList.Items()))
	status := styles.help.Render(fmt.Sprintf("%d of %d songs selected", included, len(m.songList.Items())))
	if m.notice != "" {
		status = styles.warn.Render(m.notice)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.toggle, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.songList.View(), status, helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Create a YouTube playlist?")
	info := fmt.Sprintf("Songs: %d\nPrivacy: %s\n\n%s", len(includedSongs(m.songList.Items())), m.opts.Privacy, m.name.View())

	createKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create"))
	helpView := m.help.ShortHelpView([]key.Binding{createKey, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderBuild() string {
	title := styles.title.Render("Building Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist on YouTube..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching and adding songs (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		msg := styles.err.Render(fmt.Sprintf("Error: %v", m.err))
		if m.result != nil && m.result.URL != "" {
			msg += fmt.Sprintf("\n\nPartial playlist (%d added): %s", m.result.Added, m.result.URL)
		}
		return fmt.Sprintf("%s\n\n%s", msg, helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Playlist ready!")
	info := fmt.Sprintf(
		"\n%s\n%s\n\nAdded: %d  Skipped: %d  Failed: %d",
		m.result.Playlist.Title,
		m.result.URL,
		m.result.Added,
		m.result.Skipped,
		m.result.Failed,
	)
	if m.result.Truncated > 0 {
		info += styles.warn.Render(fmt.Sprintf("\n%d songs over the per-playlist cap were left out", m.result.Truncated))
	}

	var missed string
	for _, song := range m.result.Songs {
		switch song.Outcome {
		case tasks.OutcomeSkipped:
			missed += "\n" + styles.outcome(song.Outcome).Render(fmt.Sprintf("  – %s (no match)", song.Song.Combined))
		case tasks.OutcomeFailed:
			missed += "\n" + styles.outcome(song.Outcome).Render(fmt.Sprintf("  ✗ %s (%v)", song.Song.Combined, song.Error))
		}
	}
	if missed != "" {
		missed = "\n\n" + styles.warn.Render("Not added:") + missed
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, missed, helpView)
}
