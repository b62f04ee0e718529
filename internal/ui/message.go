package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgScraped MsgKind = iota
	MsgProgressUpdate
	MsgBuildComplete
)

type scrapedData struct {
	result   *models.Result
	scrapeID string
	err      error
}

type buildData struct {
	result *tasks.BuildResult
	err    error
}

// scrapedMsg is the constructor for [MsgScraped]
func scrapedMsg(result *models.Result, scrapeID string, err error) Msg {
	return Msg{kind: MsgScraped, data: scrapedData{result, scrapeID, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// buildCompleteMsg is the constructor for [MsgBuildComplete]
func buildCompleteMsg(result *tasks.BuildResult, err error) Msg {
	return Msg{kind: MsgBuildComplete, data: buildData{result, err}}
}
