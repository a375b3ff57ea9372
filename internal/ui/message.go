package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/hsrx/internal/feed"
	"github.com/desertthunder/hsrx/internal/models"
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
	MsgPageLoaded MsgKind = iota
	MsgVisibilityChanged
	MsgReplayDeleted
	MsgBrowserOpened
	MsgReloadPage
)

type pageLoaded struct {
	page feed.LocalPage
	err  error
}

type visibilityChanged struct {
	shortID string
	current models.Visibility
	err     error
}

type replayDeleted struct {
	shortID string
	err     error
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(page feed.LocalPage, err error) Msg {
	return Msg{kind: MsgPageLoaded, data: pageLoaded{page, err}}
}

// visibilityChangedMsg is the constructor for [MsgVisibilityChanged]
func visibilityChangedMsg(shortID string, current models.Visibility, err error) Msg {
	return Msg{kind: MsgVisibilityChanged, data: visibilityChanged{shortID, current, err}}
}

// replayDeletedMsg is the constructor for [MsgReplayDeleted]
func replayDeletedMsg(shortID string, err error) Msg {
	return Msg{kind: MsgReplayDeleted, data: replayDeleted{shortID, err}}
}

// reloadPageMsg is the constructor for [MsgReloadPage]
func reloadPageMsg() Msg {
	return Msg{kind: MsgReloadPage}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
