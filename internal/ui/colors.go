package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/setlist/internal/tasks"
)

const (
	youtubeRed = lipgloss.Color("#FF0000")
	added      = lipgloss.Color("#04B575")
	failed     = lipgloss.Color("#FF5F5F")
	skipped    = lipgloss.Color("#FFA500")
	muted      = lipgloss.Color("#626262")
)

// theme is the TUI stylesheet.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var styles = theme{
	title: lipgloss.NewStyle().Foreground(youtubeRed).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(added).Bold(true),
	err:   lipgloss.NewStyle().Foreground(failed).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(skipped),
	help:  lipgloss.NewStyle().Foreground(muted).Italic(true),
}

// outcome styles a per-song build line.
func (t theme) outcome(o tasks.Outcome) lipgloss.Style {
	switch o {
	case tasks.OutcomeAdded:
		return t.ok.UnsetBold()
	case tasks.OutcomeFailed:
		return t.err.UnsetBold()
	default:
		return t.warn
	}
}

// songDelegate renders the review list with the selection bar in YouTube red.
func songDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(youtubeRed).BorderLeftForeground(youtubeRed)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(failed).BorderLeftForeground(youtubeRed)
	return d
}
